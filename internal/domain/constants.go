package domain

const (
	RoleUser  = "USER"
	RoleCoach = "COACH"
	RoleAdmin = "ADMIN"
)

const (
	MentorStatusPending    = "PENDING"
	MentorStatusAccepted   = "ACCEPTED"
	MentorStatusRejected   = "REJECTED"
	MentorStatusTerminated = "TERMINATED"
)

const (
	GoalStatusActive    = "ACTIVE"
	GoalStatusCompleted = "COMPLETED"
	GoalStatusInactive  = "INACTIVE"
	GoalStatusAbandoned = "ABANDONED"
)

const (
	VoteUp   = "UPVOTE"
	VoteDown = "DOWNVOTE"
)

// Notification types.
const (
	NotifyLike           = "LIKE"
	NotifyComment        = "COMMENT"
	NotifyReply          = "REPLY"
	NotifyMessage        = "MESSAGE"
	NotifyAchievement    = "ACHIEVEMENT"
	NotifyGoalDeadline   = "GOAL_DEADLINE"
	NotifyGoalAssigned   = "GOAL_ASSIGNED"
	NotifyChallengeEnded = "CHALLENGE_ENDED"
	NotifyMentorRequest  = "MENTOR_REQUEST"
	NotifyMentorAccepted = "MENTOR_ACCEPTED"
)

// Related object types carried on notifications.
const (
	ObjectThread     = "thread"
	ObjectComment    = "comment"
	ObjectSubcomment = "subcomment"
	ObjectGoal       = "goal"
	ObjectChallenge  = "challenge"
	ObjectChat       = "chat"
	ObjectMentorship = "mentorship"
)
