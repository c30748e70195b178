package repository

import (
	"fmt"

	"fitcommunity/internal/domain"

	"gorm.io/gorm"
)

// counterRule recomputes one denormalized column from its authoritative rows.
type counterRule struct {
	table  string
	column string
	source string // correlated subquery; %[1]s is the outer table
	args   []interface{}
}

func counterRules() []counterRule {
	likes := "SELECT COUNT(*) FROM votes WHERE votes.content_type = ? AND votes.object_id = %[1]s.id AND votes.vote_type = ?"
	return []counterRule{
		{"threads", "like_count", likes, []interface{}{string(domain.ContentThread), domain.VoteUp}},
		{"comments", "like_count", likes, []interface{}{string(domain.ContentComment), domain.VoteUp}},
		{"subcomments", "like_count", likes, []interface{}{string(domain.ContentSubcomment), domain.VoteUp}},
		{"threads", "comment_count", "SELECT COUNT(*) FROM comments WHERE comments.thread_id = %[1]s.id AND comments.deleted_at IS NULL", nil},
		{"comments", "subcomment_count", "SELECT COUNT(*) FROM subcomments WHERE subcomments.comment_id = %[1]s.id AND subcomments.deleted_at IS NULL", nil},
	}
}

// CounterRepair reports how many rows of table.column were out of sync.
type CounterRepair struct {
	Table  string `json:"table"`
	Column string `json:"column"`
	Fixed  int64  `json:"fixed"`
}

type CounterRepository struct {
	db *gorm.DB
}

func NewCounterRepository(db *gorm.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// Reconcile rewrites every denormalized forum counter that disagrees with the
// vote and child rows it summarizes. Soft-deleted parents are repaired too so
// a restore never resurrects a stale count.
func (r *CounterRepository) Reconcile() ([]CounterRepair, error) {
	var out []CounterRepair
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, rule := range counterRules() {
			sub := fmt.Sprintf(rule.source, rule.table)
			drift := fmt.Sprintf("%s <> (%s)", rule.column, sub)
			set := fmt.Sprintf("UPDATE %s SET %s = (%s) WHERE %s", rule.table, rule.column, sub, drift)
			args := append(append([]interface{}{}, rule.args...), rule.args...)
			res := tx.Exec(set, args...)
			if res.Error != nil {
				return fmt.Errorf("reconcile %s.%s: %w", rule.table, rule.column, res.Error)
			}
			out = append(out, CounterRepair{Table: rule.table, Column: rule.column, Fixed: res.RowsAffected})
		}
		return nil
	})
	return out, err
}
