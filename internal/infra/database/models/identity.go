package models

import "time"

type Identity struct {
	ID            string  `json:"id" gorm:"primaryKey;type:text"`
	Username      string  `json:"username" gorm:"type:text;uniqueIndex"`
	Role          string  `json:"role" gorm:"type:text;not null;default:'USER';index"`
	Reputation    int     `json:"reputation" gorm:"not null;default:50"`
	ToxicityFlags int     `json:"toxicityFlags" gorm:"not null;default:0;index"`
	TrustScore    float64 `json:"trustScore" gorm:"not null;default:0.5"`

	HasVector            bool    `json:"hasVector" gorm:"not null;default:false"`
	CommunicationDensity float64 `json:"communicationDensity" gorm:"not null;default:0"`
	CompetitiveIntensity float64 `json:"competitiveIntensity" gorm:"not null;default:0"`
	ScheduleReliability  float64 `json:"scheduleReliability" gorm:"not null;default:0"`
	ToxicityTolerance    float64 `json:"toxicityTolerance" gorm:"not null;default:0"`
	MentorshipPropensity float64 `json:"mentorshipPropensity" gorm:"not null;default:0"`

	EndorseTeamPlayer int `json:"endorseTeamPlayer" gorm:"not null;default:0"`
	EndorsePositive   int `json:"endorsePositive" gorm:"not null;default:0"`
	EndorseSkilled    int `json:"endorseSkilled" gorm:"not null;default:0"`
	EndorseShotcaller int `json:"endorseShotcaller" gorm:"not null;default:0"`

	CDate time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type TrustEdge struct {
	SourceID   string    `json:"sourceId" gorm:"primaryKey;type:text"`
	Source     Identity  `json:"-" gorm:"foreignKey:SourceID;constraint:OnDelete:CASCADE;"`
	TargetID   string    `json:"targetId" gorm:"primaryKey;type:text"`
	Target     Identity  `json:"-" gorm:"foreignKey:TargetID;constraint:OnDelete:CASCADE;"`
	Weight     float64   `json:"weight" gorm:"not null"`
	Provenance string    `json:"provenance" gorm:"type:text;not null"`
	CDate      time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate      time.Time `json:"mdate" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type DisciplinaryAction struct {
	ID         string     `json:"id" gorm:"primaryKey;type:text"`
	IdentityID string     `json:"identityId" gorm:"type:text;not null;index:idx_action_identity_kind"`
	Identity   Identity   `json:"-" gorm:"foreignKey:IdentityID;constraint:OnDelete:CASCADE;"`
	Kind       string     `json:"kind" gorm:"type:text;not null;index:idx_action_identity_kind"`
	IssuerID   string     `json:"issuerId" gorm:"type:text;not null"`
	Reason     string     `json:"reason" gorm:"type:text"`
	ExpiresAt  *time.Time `json:"expiresAt" gorm:"type:timestamp with time zone"`
	Active     bool       `json:"active" gorm:"not null;default:true;index"`
	CDate      time.Time  `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
