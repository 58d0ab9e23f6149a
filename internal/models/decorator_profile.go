package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DecoratorStatus string

const (
	DecoratorActive   DecoratorStatus = "active"
	DecoratorInactive DecoratorStatus = "inactive"
)

type DecoratorProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	Rating            float64         `gorm:"default:0" json:"rating"`
	Specialties       datatypes.JSON  `json:"specialties"` // ["wedding", "interior", ...]
	Experience        string          `gorm:"type:text" json:"experience"`
	CompletedProjects int             `gorm:"default:0" json:"completed_projects"`
	Status            DecoratorStatus `gorm:"type:varchar(20);default:'active'" json:"status"`
	Bio               string          `gorm:"type:text" json:"bio"`
	Availability      bool            `gorm:"default:true" json:"availability"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *DecoratorProfile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
