package service

import (
	"net/http"
	"plan-beyond-server/internal/config"
	"plan-beyond-server/internal/consts"

	"github.com/gorilla/sessions"
)

// SessionService 基于签名 Cookie 的服务端会话，负责登录态写入与清除
type SessionService struct {
	store sessions.Store
	name  string
}

func NewSessionService(cfg config.Config) *SessionService {
	store := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	maxAge := cfg.Session.MaxAgeSeconds
	if maxAge <= 0 {
		maxAge = 3600
	}
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	name := cfg.Session.CookieName
	if name == "" {
		name = "plan_beyond_session"
	}
	return &SessionService{store: store, name: name}
}

// SignIn 在会话中写入用户身份，并清除残留的仪式令牌。
func (s *SessionService) SignIn(w http.ResponseWriter, r *http.Request, userID uint, userType consts.UserType) error {
	session, _ := s.store.Get(r, s.name)
	session.Values[consts.SessionKeyUserID] = userID
	session.Values[consts.SessionKeyUserType] = string(userType)
	delete(session.Values, consts.SessionKeyCeremonyID)
	return session.Save(r, w)
}

// SignOut 通过 MaxAge=-1 使 Cookie 立即失效。
func (s *SessionService) SignOut(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, s.name)
	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// CurrentUser 返回会话中的用户 ID 与类型；未登录时 ok 为 false。
func (s *SessionService) CurrentUser(r *http.Request) (uint, consts.UserType, bool) {
	session, err := s.store.Get(r, s.name)
	if err != nil {
		return 0, "", false
	}
	userID, ok := session.Values[consts.SessionKeyUserID].(uint)
	if !ok || userID == 0 {
		return 0, "", false
	}
	userType, _ := session.Values[consts.SessionKeyUserType].(string)
	return userID, consts.UserType(userType), true
}

// RememberCeremony 把最近一次仪式令牌记入会话，供未显式回传 ceremonyId 的客户端使用。
func (s *SessionService) RememberCeremony(w http.ResponseWriter, r *http.Request, ceremonyID string) error {
	session, _ := s.store.Get(r, s.name)
	session.Values[consts.SessionKeyCeremonyID] = ceremonyID
	return session.Save(r, w)
}

// TakeCeremony 读取并清除会话中的仪式令牌。
func (s *SessionService) TakeCeremony(w http.ResponseWriter, r *http.Request) string {
	session, err := s.store.Get(r, s.name)
	if err != nil {
		return ""
	}
	id, _ := session.Values[consts.SessionKeyCeremonyID].(string)
	if id == "" {
		return ""
	}
	delete(session.Values, consts.SessionKeyCeremonyID)
	_ = session.Save(r, w)
	return id
}
