package employee

import (
	"time"
)

type Employee struct {
	ID        int64     `gorm:"column:employee_id;primaryKey;autoIncrement" json:"employee_id"`
	Email     string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"column:password;not null" json:"-"`
	FirstName string    `gorm:"column:first_name" json:"first_name"`
	LastName  string    `gorm:"column:last_name" json:"last_name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Employee) TableName() string { return "employees" }

// EmployeeSession backs a signed session token; the token id is the JWT jti.
type EmployeeSession struct {
	Token      string    `gorm:"column:token;type:varchar(36);primaryKey" json:"token"`
	EmployeeID int64     `gorm:"column:employee_id;index;not null" json:"employee_id"`
	Employee   *Employee `gorm:"foreignKey:EmployeeID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	ExpiresAt  time.Time `gorm:"column:expires_at;index" json:"expires_at"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (EmployeeSession) TableName() string { return "employee_sessions" }
