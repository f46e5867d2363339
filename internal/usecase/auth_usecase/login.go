package auth

import (
	"context"
	"errors"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
	"bookstore/internal/usecase"
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Email    string
	Password string

	//ゲストカートのマージ用。無ければマージしない
	SessionID string
}

// token 形（JwtAccessToken相当）
type JwtAccessToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// handlerがJSONにして返す
type LoginOutput struct {
	User  model.User            `json:"user"`
	Token JwtAccessToken        `json:"token"`
	Cart  *usecase.CartResponse `json:"cart,omitempty"`
}

// メールまたはパスワードが違う
var ErrInvalidCredentials = errors.New("invalid credentials")

// 停止済みユーザー
var ErrUserInactive = errors.New("user is inactive")

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(userID int64, role model.Role, now time.Time) (token string, expiresAt time.Time, err error)
}

// カートマージの約束（ログイン成功時に呼ぶ）
type CartMerger interface {
	MergeCarts(ctx context.Context, sessionID string, userID int64) (usecase.CartResponse, error)
}

type LoginUsecase struct {
	userRepo repo.UserRepository
	verifier PasswordVerifier
	issuer   AccessTokenIssuer
	merger   CartMerger
	clock    Clock
}

func NewLoginUsecase(
	userRepo repo.UserRepository,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	merger CartMerger,
	clock Clock,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
		merger:   merger,
		clock:    clock,
	}
}

// ログイン処理を実行する。
// 認証成功後、同じリクエストのセッションにゲストカートがあれば
// ユーザーカートへマージする（マージ失敗はログイン失敗として扱う）。
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, error) {
	var out LoginOutput

	//emailでユーザー取得
	user, err := u.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return out, ErrInvalidCredentials
		}
		return out, err
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return out, ErrUserInactive
	}

	//パスワード照合
	if ok := u.verifier.Verify(in.Password, user.PasswordHash); !ok {
		return out, ErrInvalidCredentials
	}

	//AccessToken発行
	now := u.clock.Now()
	accessToken, accessExp, err := u.issuer.Issue(user.ID, user.Role, now)
	if err != nil {
		return out, err
	}

	//ゲストカートのマージ（セッションがあるときだけ）
	if in.SessionID != "" && u.merger != nil {
		cart, err := u.merger.MergeCarts(ctx, in.SessionID, user.ID)
		if err != nil {
			return out, err
		}
		out.Cart = &cart
	}

	//最終ログイン時刻更新
	user.LastLoginAt = &now
	if err := u.userRepo.Update(ctx, user); err != nil {
		return out, err
	}

	//出力（ハッシュは返さない）
	user.PasswordHash = ""

	out.User = user
	out.Token = JwtAccessToken{
		AccessToken: accessToken,
		ExpiresIn:   int(accessExp.Sub(now).Seconds()),
	}
	return out, nil
}
