package models

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/mmdatafocus/travel_backend/utils"
	"gorm.io/gorm"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Username  string    `gorm:"size:100;not null;unique" json:"username"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:100" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      UserRole  `gorm:"size:30;not null;index" json:"role"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username string   `json:"username" validate:"required,min=3,max=100"`
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"omitempty,email"`
	Password string   `json:"password" validate:"required,min=8"`
	Role     UserRole `json:"role" validate:"required"`
}

type LoginInfo struct {
	Token string   `json:"token"`
	Name  string   `json:"name"`
	Role  UserRole `json:"role"`
}

func CreateUser(ctx context.Context, db *gorm.DB, input *NewUser) (*User, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if !input.Role.IsValid() {
		return nil, utils.NewValidationError("role", "invalid role %q", input.Role)
	}
	username := html.EscapeString(strings.TrimSpace(input.Username))
	count, err := utils.ResourceCountWhere[User](ctx, db, "username = ?", username)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewConflictError("username %s already exists", username)
	}
	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := User{
		Username: username,
		Name:     input.Name,
		Email:    input.Email,
		Password: hashed,
		Role:     input.Role,
		IsActive: utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return nil, utils.NewConflictError("username %s already exists", username)
		}
		return nil, err
	}
	return &user, nil
}

func GetUser(ctx context.Context, db *gorm.DB, id int) (*User, error) {
	return utils.FetchModel[User](ctx, db, "user", id)
}

func Login(ctx context.Context, db *gorm.DB, username string, password string) (*LoginInfo, error) {
	var user User
	err := db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewValidationError("username", "invalid username or password")
		}
		return nil, err
	}
	if !utils.DereferencePtr(user.IsActive, false) {
		return nil, utils.NewAccessDeniedError("user", user.ID, "user is inactive")
	}
	if err := utils.ComparePassword(user.Password, password); err != nil {
		return nil, utils.NewValidationError("username", "invalid username or password")
	}
	token, err := utils.JwtGenerate(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &LoginInfo{Token: token, Name: user.Name, Role: user.Role}, nil
}
