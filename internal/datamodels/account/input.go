package account

import (
	"regexp"
	"strings"

	"github.com/example/buysell/internal/apperr"
)

const (
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt 上限
	minAge         = 1
	maxAge         = 150
)

// RegisterInput 注册请求
type RegisterInput struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Age           int    `json:"age"`
	ContactNumber string `json:"contactNumber"`
	Password      string `json:"password"`
	CaptchaToken  string `json:"captchaToken"`
}

// Normalize 去除首尾空白，邮箱转小写
func (in *RegisterInput) Normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = NormalizeEmail(in.Email)
	in.ContactNumber = strings.TrimSpace(in.ContactNumber)
}

// Validate 校验注册字段，emailPattern 为学校邮箱规则
func (in *RegisterInput) Validate(emailPattern *regexp.Regexp) error {
	if in.FirstName == "" {
		return apperr.Validation("firstName is required")
	}
	if in.LastName == "" {
		return apperr.Validation("lastName is required")
	}
	if !emailPattern.MatchString(in.Email) {
		return apperr.Validation("email must be an institutional address")
	}
	if err := validateAge(in.Age); err != nil {
		return err
	}
	if in.ContactNumber == "" {
		return apperr.Validation("contactNumber is required")
	}
	return ValidatePassword(in.Password)
}

// LoginInput 登录请求
type LoginInput struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"captchaToken"`
}

// ProfilePatch 资料修改：要么修改资料字段，要么修改密码，不能混用
type ProfilePatch struct {
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	Age             *int    `json:"age"`
	ContactNumber   *string `json:"contactNumber"`
	CurrentPassword *string `json:"currentPassword"`
	NewPassword     *string `json:"newPassword"`
}

// IsPasswordChange 是否为修改密码请求
func (p *ProfilePatch) IsPasswordChange() bool {
	return p.CurrentPassword != nil || p.NewPassword != nil
}

func (p *ProfilePatch) hasProfileFields() bool {
	return p.FirstName != nil || p.LastName != nil || p.Age != nil || p.ContactNumber != nil
}

// Validate 逐字段校验
func (p *ProfilePatch) Validate() error {
	switch {
	case p.IsPasswordChange() && p.hasProfileFields():
		return apperr.Validation("password change cannot be combined with profile fields")
	case p.IsPasswordChange():
		if p.CurrentPassword == nil || p.NewPassword == nil {
			return apperr.Validation("currentPassword and newPassword are both required")
		}
		return ValidatePassword(*p.NewPassword)
	case !p.hasProfileFields():
		return apperr.Validation("nothing to update")
	}
	if p.FirstName != nil && strings.TrimSpace(*p.FirstName) == "" {
		return apperr.Validation("firstName must not be empty")
	}
	if p.Age != nil {
		if err := validateAge(*p.Age); err != nil {
			return err
		}
	}
	if p.ContactNumber != nil && strings.TrimSpace(*p.ContactNumber) == "" {
		return apperr.Validation("contactNumber must not be empty")
	}
	return nil
}

// ApplyProfile 把资料字段写入账户，调用前需先 Validate
func (p *ProfilePatch) ApplyProfile(a *Account) {
	if p.FirstName != nil {
		a.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		a.LastName = strings.TrimSpace(*p.LastName)
	}
	if p.Age != nil {
		a.Age = *p.Age
	}
	if p.ContactNumber != nil {
		a.ContactNumber = strings.TrimSpace(*p.ContactNumber)
	}
}

// ReviewInput 卖家评价请求
type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Validate 评分 1~5，评论必填
func (in ReviewInput) Validate() error {
	if in.Rating < 1 || in.Rating > 5 {
		return apperr.Validation("rating must be between 1 and 5")
	}
	if strings.TrimSpace(in.Comment) == "" {
		return apperr.Validation("comment is required")
	}
	return nil
}

// ValidatePassword 密码长度限制
func ValidatePassword(pw string) error {
	if len(pw) < minPasswordLen {
		return apperr.Validation("password must be at least %d characters", minPasswordLen)
	}
	if len(pw) > maxPasswordLen {
		return apperr.Validation("password must be at most %d bytes", maxPasswordLen)
	}
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateAge(age int) error {
	if age < minAge || age > maxAge {
		return apperr.Validation("age must be between %d and %d", minAge, maxAge)
	}
	return nil
}
