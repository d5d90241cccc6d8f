package models

import "time"

type Game struct {
	ID    string `json:"id" gorm:"primaryKey;type:text"`
	Name  string `json:"name" gorm:"type:text;uniqueIndex"`
	Genre string `json:"genre" gorm:"type:text"`
}

type Session struct {
	ID          string   `json:"id" gorm:"primaryKey;type:text"`
	HostID      string   `json:"hostId" gorm:"type:text;not null;index"`
	Host        Identity `json:"-" gorm:"foreignKey:HostID;"`
	GameID      string   `json:"gameId" gorm:"type:text;index"`
	Title       string   `json:"title" gorm:"type:text;not null"`
	Description string   `json:"description" gorm:"type:text"`
	Region      string   `json:"region" gorm:"type:text;index"`
	MicRequired bool     `json:"micRequired" gorm:"not null;default:false"`
	Capacity    int      `json:"capacity" gorm:"not null"`
	Occupancy   int      `json:"occupancy" gorm:"not null;default:1"`
	Status      string   `json:"status" gorm:"type:text;not null;default:'OPEN';index"`

	MinCompatibility *float64 `json:"minCompatibility"`
	MinTrust         *float64 `json:"minTrust"`

	CDate time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Membership struct {
	SessionID  string    `json:"sessionId" gorm:"primaryKey;type:text"`
	Session    Session   `json:"-" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE;"`
	IdentityID string    `json:"identityId" gorm:"primaryKey;type:text;index"`
	Identity   Identity  `json:"-" gorm:"foreignKey:IdentityID;"`
	CDate      time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type ChatMessage struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	SessionID string    `json:"sessionId" gorm:"type:text;not null;index:idx_chat_session_cdate"`
	AuthorID  string    `json:"authorId" gorm:"type:text;not null;index"`
	Author    Identity  `json:"-" gorm:"foreignKey:AuthorID;"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Toxic     bool      `json:"toxic" gorm:"not null;default:false;index"`
	CDate     time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp();index:idx_chat_session_cdate"`
}

type Notification struct {
	ID          string    `json:"id" gorm:"primaryKey;type:text"`
	RecipientID string    `json:"recipientId" gorm:"type:text;not null;index"`
	Recipient   Identity  `json:"-" gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE;"`
	Kind        string    `json:"kind" gorm:"type:text;not null"`
	Message     string    `json:"message" gorm:"type:text;not null"`
	Read        bool      `json:"read" gorm:"not null;default:false;index"`
	CDate       time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type AuditEntry struct {
	ID       string    `json:"id" gorm:"primaryKey;type:text"`
	ActorID  string    `json:"actorId" gorm:"type:text;not null;index"`
	Action   string    `json:"action" gorm:"type:text;not null"`
	TargetID string    `json:"targetId" gorm:"type:text;index"`
	Details  string    `json:"details" gorm:"type:text"`
	CDate    time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
