package repository

import (
	"fitcommunity/internal/domain"

	"gorm.io/gorm"
)

// contentTables maps each votable content type to its table. Every table in
// the registry carries author_id, like_count and deleted_at.
var contentTables = map[domain.ContentType]string{
	domain.ContentThread:     "threads",
	domain.ContentComment:    "comments",
	domain.ContentSubcomment: "subcomments",
}

// ContentInfo is the part of a content row the vote ledger and emitter need.
type ContentInfo struct {
	ID        uint
	AuthorID  uint
	LikeCount int64
}

func contentTable(t domain.ContentType) (string, error) {
	table, ok := contentTables[t]
	if !ok {
		return "", domain.Invalid("unknown content type " + string(t))
	}
	return table, nil
}

// LookupContent loads author and like_count for ref. Returns gorm.ErrRecordNotFound
// when the row does not exist or is soft-deleted.
func LookupContent(db *gorm.DB, ref domain.ContentRef) (*ContentInfo, error) {
	table, err := contentTable(ref.Type)
	if err != nil {
		return nil, err
	}
	var info ContentInfo
	res := db.Table(table).Select("id, author_id, like_count").
		Where("id = ? AND deleted_at IS NULL", ref.ID).Limit(1).Scan(&info)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &info, nil
}

// adjustLikes applies delta to like_count in a single UPDATE so concurrent voters never lose an increment.
func adjustLikes(db *gorm.DB, ref domain.ContentRef, delta int) error {
	if delta == 0 {
		return nil
	}
	table, err := contentTable(ref.Type)
	if err != nil {
		return err
	}
	return db.Table(table).Where("id = ?", ref.ID).
		UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error
}
