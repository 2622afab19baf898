package api

// Статусы ответов сервера. Каждый ответ несет поле status,
// ошибки дополнительно несут человекочитаемое message.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Username string `json:"username"` // уникальный username
	Password string `json:"password"` // пароль в открытом виде (передается по TLS)
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse представляет ответ с access token
// Возвращается и на register, и на login
type TokenResponse struct {
	Status      string `json:"status"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in,omitempty"` // секунды до истечения токена
	Message     string `json:"message,omitempty"`
}

// StatusResponse представляет ответ-подтверждение без полезной нагрузки
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Status  string `json:"status"`  // всегда "error"
	Message string `json:"message"` // описание ошибки
}
