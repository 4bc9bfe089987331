package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/buysell/internal/apperr"
	"github.com/example/buysell/internal/auth"
	"github.com/example/buysell/internal/datamodels/account"
	"github.com/example/buysell/internal/infra/captcha"
	"github.com/example/buysell/internal/repository/gormrepo"
)

// AuthResult 登录/注册成功后返回给客户端
type AuthResult struct {
	Token   string           `json:"token"`
	Account *account.Account `json:"user"`
}

// AccountService 注册、登录、资料维护与卖家评价
type AccountService struct {
	store        *gormrepo.Store
	hasher       auth.Hasher
	gate         *auth.Gate
	captcha      captcha.Verifier
	attempts     auth.AttemptGuard
	monitor      *Monitor
	emailPattern *regexp.Regexp
	ssoDomain    string
	// dummyHash 邮箱不存在时也做一次同等代价的校验
	dummyHash string
}

// NewAccountService emailPattern 为学校邮箱规则，ssoDomain 为单点登录账户的邮箱域名
func NewAccountService(
	store *gormrepo.Store,
	hasher auth.Hasher,
	gate *auth.Gate,
	verifier captcha.Verifier,
	attempts auth.AttemptGuard,
	monitor *Monitor,
	emailPattern *regexp.Regexp,
	ssoDomain string,
) *AccountService {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		zap.L().Warn("prepare dummy password hash", zap.Error(err))
	}
	return &AccountService{
		store:        store,
		hasher:       hasher,
		gate:         gate,
		captcha:      verifier,
		attempts:     attempts,
		monitor:      monitor,
		emailPattern: emailPattern,
		ssoDomain:    ssoDomain,
		dummyHash:    dummy,
	}
}

func (s *AccountService) verifyCaptcha(ctx context.Context, proof string) bool {
	ok, err := s.captcha.Verify(ctx, proof)
	if err != nil {
		zap.L().Warn("captcha verification failed", zap.Error(err))
		return false
	}
	return ok
}

func (s *AccountService) issue(a *account.Account) (*AuthResult, error) {
	token, err := s.gate.Issue(a.ID, a.Email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &AuthResult{Token: token, Account: a}, nil
}

// Register 注册新账户并签发 token
func (s *AccountService) Register(ctx context.Context, in account.RegisterInput) (*AuthResult, error) {
	in.Normalize()
	if err := in.Validate(s.emailPattern); err != nil {
		return nil, err
	}
	if !s.verifyCaptcha(ctx, in.CaptchaToken) {
		return nil, apperr.AuthChallenge("captcha verification failed")
	}

	_, err := s.store.Accounts.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, apperr.Conflict("email already registered")
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, storeErr(s.monitor, err, "")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	a := &account.Account{
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Email:         in.Email,
		Age:           in.Age,
		ContactNumber: in.ContactNumber,
		PasswordHash:  hash,
	}
	if err := s.store.Accounts.Create(ctx, a); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, storeErr(s.monitor, err, "")
	}
	zap.L().Info("account registered", zap.Int64("account_id", a.ID))
	return s.issue(a)
}

// Login 邮箱密码登录；人机验证失败与账号密码错误对调用方表现一致
func (s *AccountService) Login(ctx context.Context, in account.LoginInput) (*AuthResult, error) {
	email := account.NormalizeEmail(in.Email)
	key := "login:" + email
	if err := s.attempts.Check(ctx, key); err != nil {
		return nil, err
	}
	if !s.verifyCaptcha(ctx, in.CaptchaToken) {
		return nil, apperr.AuthChallenge("invalid credentials")
	}

	a, err := s.store.Accounts.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr(s.monitor, err, "")
	}
	digest := s.dummyHash
	if err == nil {
		digest = a.PasswordHash
	}
	if !s.hasher.Verify(in.Password, digest) || err != nil {
		if ferr := s.attempts.Fail(ctx, key); ferr != nil {
			zap.L().Warn("record login failure", zap.Error(ferr))
		}
		return nil, apperr.InvalidCredentials()
	}
	if err := s.attempts.Reset(ctx, key); err != nil {
		zap.L().Warn("reset login attempts", zap.Error(err))
	}
	return s.issue(a)
}

// LoginExternal 单点登录：按 <用户名>@<域名> 查找或创建账户。
// 新账户的本地密码为随机值的哈希，明文立即丢弃，无法用于密码登录
func (s *AccountService) LoginExternal(ctx context.Context, username string) (*AuthResult, error) {
	local := strings.ToLower(strings.TrimSpace(username))
	if i := strings.IndexByte(local, '@'); i >= 0 {
		local = local[:i]
	}
	if local == "" {
		return nil, apperr.AuthChallenge("single sign-on failed")
	}
	email := local + "@" + s.ssoDomain

	a, err := s.store.Accounts.GetByEmail(ctx, email)
	if err == nil {
		return s.issue(a)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr(s.monitor, err, "")
	}

	hash, err := s.hasher.Hash(uuid.NewString() + uuid.NewString())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	a = &account.Account{FirstName: local, Email: email, PasswordHash: hash}
	if err := s.store.Accounts.Create(ctx, a); err != nil {
		return nil, storeErr(s.monitor, err, "")
	}
	zap.L().Info("account created via sso", zap.Int64("account_id", a.ID))
	return s.issue(a)
}

// GetProfile 当前用户资料
func (s *AccountService) GetProfile(ctx context.Context, accountID int64) (*account.Account, error) {
	a, err := s.store.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, storeErr(s.monitor, err, "account not found")
	}
	return a, nil
}

// UpdateProfile 修改资料或修改密码，二者不能同时进行
func (s *AccountService) UpdateProfile(ctx context.Context, accountID int64, patch *account.ProfilePatch) (*account.Account, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	a, err := s.store.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, storeErr(s.monitor, err, "account not found")
	}

	if patch.IsPasswordChange() {
		if !s.hasher.Verify(*patch.CurrentPassword, a.PasswordHash) {
			return nil, apperr.Validation("current password is incorrect")
		}
		hash, err := s.hasher.Hash(*patch.NewPassword)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		a.PasswordHash = hash
	} else {
		patch.ApplyProfile(a)
	}

	if err := s.store.Accounts.Update(ctx, a); err != nil {
		return nil, storeErr(s.monitor, err, "account not found")
	}
	if patch.IsPasswordChange() {
		zap.L().Info("password changed", zap.Int64("account_id", a.ID))
	}
	return a, nil
}

// AddSellerReview 评价卖家，每个评价人对同一卖家只能评价一次
func (s *AccountService) AddSellerReview(ctx context.Context, reviewerID, sellerID int64, in account.ReviewInput) ([]*account.Review, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if reviewerID == sellerID {
		return nil, apperr.Validation("cannot review yourself")
	}
	if _, err := s.store.Accounts.GetByID(ctx, sellerID); err != nil {
		return nil, storeErr(s.monitor, err, "user not found")
	}
	has, err := s.store.Accounts.HasReview(ctx, sellerID, reviewerID)
	if err != nil {
		return nil, storeErr(s.monitor, err, "")
	}
	if has {
		return nil, apperr.Conflict("you have already reviewed this user")
	}

	rv := &account.Review{
		SubjectID:  sellerID,
		ReviewerID: reviewerID,
		Rating:     in.Rating,
		Comment:    strings.TrimSpace(in.Comment),
	}
	if err := s.store.Accounts.CreateReview(ctx, rv); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("you have already reviewed this user")
		}
		return nil, storeErr(s.monitor, err, "")
	}
	return s.ListSellerReviews(ctx, sellerID)
}

// ListSellerReviews 卖家收到的评价，最新在前
func (s *AccountService) ListSellerReviews(ctx context.Context, sellerID int64) ([]*account.Review, error) {
	if _, err := s.store.Accounts.GetByID(ctx, sellerID); err != nil {
		return nil, storeErr(s.monitor, err, "user not found")
	}
	list, err := s.store.Accounts.ListReviews(ctx, sellerID)
	if err != nil {
		return nil, storeErr(s.monitor, err, "")
	}
	return list, nil
}
