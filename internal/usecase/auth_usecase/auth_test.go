package auth_test

import (
	"context"
	"testing"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
	"bookstore/internal/usecase"
	auth "bookstore/internal/usecase/auth_usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// インメモリのUserRepository
type memUserRepo struct {
	nextID int64
	users  map[int64]model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[int64]model.User{}}
}

func (r *memUserRepo) FindByID(ctx context.Context, userID int64) (model.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return model.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repo.ErrNotFound
}

func (r *memUserRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = u
	return u, nil
}

func (r *memUserRepo) Update(ctx context.Context, u model.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return repo.ErrNotFound
	}
	r.users[u.ID] = u
	return nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type stubIssuer struct{}

func (stubIssuer) Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	return "stub-token", now.Add(15 * time.Minute), nil
}

// マージ呼び出しを記録するスタブ
type recordingMerger struct {
	calledWith string
	userID     int64
	result     usecase.CartResponse
	err        error
}

func (m *recordingMerger) MergeCarts(ctx context.Context, sessionID string, userID int64) (usecase.CartResponse, error) {
	m.calledWith = sessionID
	m.userID = userID
	if m.err != nil {
		return usecase.CartResponse{}, m.err
	}
	return m.result, nil
}

const validPassword = "correct horse battery staple"

func registerUser(t *testing.T, users *memUserRepo, email string) model.User {
	t.Helper()

	uc := auth.NewRegisterUserUsecase(users, auth.NewBcryptPasswordHasher(4), auth.SystemClock{})
	out, err := uc.Execute(context.Background(), auth.RegisterUserInput{
		Email:    email,
		Name:     "Taro",
		Password: validPassword,
	})
	require.NoError(t, err)
	return out.User
}

func TestRegisterUser_Success(t *testing.T) {
	users := newMemUserRepo()

	u := registerUser(t, users, "taro@example.com")

	assert.NotZero(t, u.ID)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.True(t, u.IsActive)
	//レスポンスにハッシュは載せない
	assert.Empty(t, u.PasswordHash)
	//保存側にはハッシュが残る（平文ではない）
	stored := users.users[u.ID]
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotEqual(t, validPassword, stored.PasswordHash)
}

func TestRegisterUser_Validation(t *testing.T) {
	users := newMemUserRepo()
	uc := auth.NewRegisterUserUsecase(users, auth.NewBcryptPasswordHasher(4), auth.SystemClock{})

	_, err := uc.Execute(context.Background(), auth.RegisterUserInput{Email: "not-an-email", Password: validPassword})
	assert.ErrorIs(t, err, auth.ErrInvalidEmailFormat)

	_, err = uc.Execute(context.Background(), auth.RegisterUserInput{Email: "a@example.com", Password: "short"})
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)

	_, err = uc.Execute(context.Background(), auth.RegisterUserInput{Email: "a@example.com", Password: "123456789012"})
	assert.ErrorIs(t, err, auth.ErrWeakPassword)
}

func TestRegisterUser_DuplicateEmail(t *testing.T) {
	users := newMemUserRepo()
	registerUser(t, users, "taro@example.com")

	uc := auth.NewRegisterUserUsecase(users, auth.NewBcryptPasswordHasher(4), auth.SystemClock{})
	_, err := uc.Execute(context.Background(), auth.RegisterUserInput{
		Email:    "taro@example.com",
		Password: validPassword,
	})
	assert.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
}

func TestLogin_Success_MergesGuestCart(t *testing.T) {
	users := newMemUserRepo()
	u := registerUser(t, users, "taro@example.com")

	merger := &recordingMerger{result: usecase.CartResponse{ID: 9, Total: 5000}}
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	uc := auth.NewLoginUsecase(users, auth.NewBcryptPasswordVerifier(), stubIssuer{}, merger, fixedClock{now})

	out, err := uc.Execute(context.Background(), auth.LoginInput{
		Email:     "taro@example.com",
		Password:  validPassword,
		SessionID: "sess-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "stub-token", out.Token.AccessToken)
	assert.Equal(t, int(15*time.Minute/time.Second), out.Token.ExpiresIn)
	assert.Empty(t, out.User.PasswordHash)

	//ゲストカートがマージされている
	assert.Equal(t, "sess-1", merger.calledWith)
	assert.Equal(t, u.ID, merger.userID)
	require.NotNil(t, out.Cart)
	assert.Equal(t, int64(5000), out.Cart.Total)

	//最終ログイン時刻が更新される
	stored := users.users[u.ID]
	require.NotNil(t, stored.LastLoginAt)
	assert.Equal(t, now, *stored.LastLoginAt)
}

func TestLogin_NoSessionSkipsMerge(t *testing.T) {
	users := newMemUserRepo()
	registerUser(t, users, "taro@example.com")

	merger := &recordingMerger{}
	uc := auth.NewLoginUsecase(users, auth.NewBcryptPasswordVerifier(), stubIssuer{}, merger, auth.SystemClock{})

	out, err := uc.Execute(context.Background(), auth.LoginInput{
		Email:    "taro@example.com",
		Password: validPassword,
	})
	require.NoError(t, err)

	assert.Empty(t, merger.calledWith)
	assert.Nil(t, out.Cart)
}

func TestLogin_WrongPassword(t *testing.T) {
	users := newMemUserRepo()
	registerUser(t, users, "taro@example.com")

	uc := auth.NewLoginUsecase(users, auth.NewBcryptPasswordVerifier(), stubIssuer{}, nil, auth.SystemClock{})

	_, err := uc.Execute(context.Background(), auth.LoginInput{
		Email:    "taro@example.com",
		Password: "wrong password here",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	users := newMemUserRepo()

	uc := auth.NewLoginUsecase(users, auth.NewBcryptPasswordVerifier(), stubIssuer{}, nil, auth.SystemClock{})

	_, err := uc.Execute(context.Background(), auth.LoginInput{
		Email:    "nobody@example.com",
		Password: validPassword,
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_InactiveUser(t *testing.T) {
	users := newMemUserRepo()
	u := registerUser(t, users, "taro@example.com")

	stored := users.users[u.ID]
	stored.IsActive = false
	users.users[u.ID] = stored

	uc := auth.NewLoginUsecase(users, auth.NewBcryptPasswordVerifier(), stubIssuer{}, nil, auth.SystemClock{})

	_, err := uc.Execute(context.Background(), auth.LoginInput{
		Email:    "taro@example.com",
		Password: validPassword,
	})
	assert.ErrorIs(t, err, auth.ErrUserInactive)
}
