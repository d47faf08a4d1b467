package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/infradash/internal/client/storage"
	"github.com/iudanet/infradash/internal/models"
	pkgapi "github.com/iudanet/infradash/pkg/api"
)

// DefaultTimeout таймаут HTTP-обмена по умолчанию
const DefaultTimeout = 30 * time.Second

// Эндпоинты аутентификации backend'а
const (
	PathLogin          = "/auth/login/"
	PathLogout         = "/auth/logout/"
	PathRefresh        = "/auth/refresh/"
	PathMe             = "/auth/me/"
	PathChangePassword = "/auth/change-password/"
	PathHealth         = "/health/"
)

// TokenStore хранилище токенов, которым пользуется клиент
type TokenStore interface {
	Token(ctx context.Context, kind storage.TokenKind) (string, error)
	SetAccessToken(ctx context.Context, access string) error
	SetTokens(ctx context.Context, tokens models.AuthTokens) error
	Clear(ctx context.Context) error
}

// Client HTTP клиент backend'а управления инфраструктурой.
// Подставляет access token, при 401 один раз обновляет его и повторяет запрос.
// Пока идет обновление, остальные получившие 401 запросы ждут в очереди.
type Client struct {
	tokens     TokenStore
	navigator  Navigator
	httpClient *http.Client
	metrics    *Metrics
	logger     *slog.Logger
	baseURL    string

	mu         sync.Mutex
	queue      []*waiter
	expired    []SessionHook
	refreshing bool
}

// SessionHook вызывается после того, как клиент очистил сессию из-за неудачного обновления токена
type SessionHook func(ctx context.Context)

// Option настраивает Client
type Option func(*Client)

// WithHTTPClient заменяет http.Client (транспорт логирования все равно навешивается)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout задает таймаут HTTP-обмена
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger задает logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithNavigator задает обработчик перехода на экран входа. nil игнорируется.
func WithNavigator(n Navigator) Option {
	return func(c *Client) {
		if n != nil {
			c.navigator = n
		}
	}
}

// WithSessionExpiredHook добавляет обработчик очистки сессии. nil игнорируется.
func WithSessionExpiredHook(fn SessionHook) Option {
	return func(c *Client) {
		if fn != nil {
			c.expired = append(c.expired, fn)
		}
	}
}

// OnSessionExpired регистрирует обработчик очистки сессии на уже созданном клиенте
func (c *Client) OnSessionExpired(fn SessionHook) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.expired = append(c.expired, fn)
	c.mu.Unlock()
}

// WithMetrics задает метрики клиента
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient создает новый API клиент
func NewClient(baseURL string, tokens TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		tokens:    tokens,
		navigator: noopNavigator{},
		logger:    slog.Default(),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	hc := *c.httpClient
	hc.Transport = newLoggingTransport(hc.Transport, c.logger)
	c.httpClient = &hc

	return c
}

// BaseURL возвращает базовый адрес API
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request описание одного логического запроса, переживает повтор
type request struct {
	header      http.Header
	query       url.Values
	progress    ProgressFunc
	method      string
	path        string
	contentType string
	body        []byte
	anonymous   bool
	retried     bool
}

// RequestOption настраивает отдельный запрос
type RequestOption func(*request)

// ProgressFunc получает число отправленных байт тела и его полный размер
type ProgressFunc func(sent, total int64)

// WithQuery добавляет query-параметры
func WithQuery(q url.Values) RequestOption {
	return func(r *request) {
		if r.query == nil {
			r.query = url.Values{}
		}
		for k, vs := range q {
			for _, v := range vs {
				r.query.Add(k, v)
			}
		}
	}
}

// WithHeader добавляет заголовок
func WithHeader(key, value string) RequestOption {
	return func(r *request) {
		if r.header == nil {
			r.header = http.Header{}
		}
		r.header.Set(key, value)
	}
}

// WithProgress задает callback прогресса отправки тела
func WithProgress(fn ProgressFunc) RequestOption {
	return func(r *request) {
		r.progress = fn
	}
}

// WithoutAuth отправляет запрос без Authorization и без обновления токена при 401
func WithoutAuth() RequestOption {
	return func(r *request) {
		r.anonymous = true
	}
}

// Do выполняет запрос: body кодируется в JSON, успешный ответ декодируется в result.
// result может быть nil.
func (c *Client) Do(ctx context.Context, method, path string, body, result any, opts ...RequestOption) error {
	r := &request{
		method: method,
		path:   path,
	}

	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		r.body = jsonData
		r.contentType = "application/json"
	}

	for _, opt := range opts {
		opt(r)
	}

	return c.execute(ctx, r, result)
}

// execute подставляет текущий access token и отправляет запрос
func (c *Client) execute(ctx context.Context, r *request, result any) error {
	token, err := c.tokens.Token(ctx, storage.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to read access token: %w", err)
	}
	return c.send(ctx, r, token, result, nil)
}

// send выполняет один HTTP-обмен. onDispatch вызывается непосредственно перед отправкой.
func (c *Client) send(ctx context.Context, r *request, token string, result any, onDispatch func()) error {
	status, respBody, err := c.roundTrip(ctx, r, token, onDispatch)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && !r.retried && !r.anonymous {
		return c.handleUnauthorized(ctx, r, result, newResponseError(status, respBody))
	}

	// Проверяем статус код
	if status < 200 || status >= 300 {
		return newResponseError(status, respBody)
	}

	// Декодируем успешный ответ
	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) roundTrip(ctx context.Context, r *request, token string, onDispatch func()) (int, []byte, error) {
	target, err := c.resolve(r.path, r.query)
	if err != nil {
		return 0, nil, err
	}

	var bodyReader io.Reader
	if r.body != nil {
		bodyReader = bytes.NewReader(r.body)
		if r.progress != nil {
			bodyReader = &progressReader{
				r:     bodyReader,
				total: int64(len(r.body)),
				fn:    r.progress,
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if r.body != nil {
		req.ContentLength = int64(len(r.body))
	}

	req.Header.Set("Accept", "application/json")
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if token != "" && !r.anonymous {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if onDispatch != nil {
		onDispatch()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observeRequest(r.method, 0)
		return 0, nil, newNetworkError(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	c.metrics.observeRequest(r.method, resp.StatusCode)

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, newNetworkError(fmt.Errorf("failed to read response body: %w", err))
	}

	return resp.StatusCode, respBody, nil
}

// resolve строит абсолютный URL. Абсолютные адреса (ссылки next/previous) используются как есть.
func (c *Client) resolve(path string, query url.Values) (string, error) {
	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		target = c.baseURL + path
	}

	if len(query) == 0 {
		return target, nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid request url %q: %w", target, err)
	}
	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Refresh обменивает refresh token на новый access token.
// Запрос отправляется без Authorization и не перехватывается при 401.
// Если backend не вернул новый refresh token, в ответе остается переданный.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (models.AuthTokens, error) {
	body, err := json.Marshal(pkgapi.RefreshRequest{Refresh: refreshToken})
	if err != nil {
		return models.AuthTokens{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	var resp pkgapi.RefreshResponse
	err = c.send(ctx, &request{
		method:      http.MethodPost,
		path:        PathRefresh,
		body:        body,
		contentType: "application/json",
		anonymous:   true,
	}, "", &resp, nil)
	if err != nil {
		return models.AuthTokens{}, err
	}
	if resp.Access == "" {
		return models.AuthTokens{}, &APIError{
			Kind:    KindUnknown,
			Status:  http.StatusOK,
			Message: "refresh response has no access token",
		}
	}

	tokens := models.AuthTokens{Access: resp.Access, Refresh: refreshToken}
	if resp.Refresh != "" {
		tokens.Refresh = resp.Refresh
	}
	return tokens, nil
}

var errNoRefreshToken = errors.New("no refresh token")

// refreshResult итог обновления, который получает ожидающий запрос
type refreshResult struct {
	err   error
	token string
}

// waiter запрос, ожидающий окончания обновления токена.
// release закрывается, когда запрос отправлен повторно или перестал ждать.
type waiter struct {
	result  chan refreshResult
	release chan struct{}
	once    sync.Once
}

func newWaiter() *waiter {
	return &waiter{
		result:  make(chan refreshResult, 1),
		release: make(chan struct{}),
	}
}

func (w *waiter) done() {
	w.once.Do(func() { close(w.release) })
}

// handleUnauthorized обрабатывает первый 401 для запроса r.
// unauthorized нормализованная ошибка исходного ответа.
func (c *Client) handleUnauthorized(ctx context.Context, r *request, result any, unauthorized *APIError) error {
	r.retried = true

	c.mu.Lock()
	if c.refreshing {
		w := newWaiter()
		c.queue = append(c.queue, w)
		c.metrics.incQueued()
		c.metrics.setQueueLength(len(c.queue))
		c.mu.Unlock()
		return c.awaitRefresh(ctx, w, r, result, unauthorized)
	}
	c.refreshing = true
	c.mu.Unlock()

	// Обновление общее для всей очереди и не должно обрываться отменой одного запроса
	access, err := c.refreshAccess(context.WithoutCancel(ctx))
	switch {
	case errors.Is(err, errNoRefreshToken):
		c.metrics.observeRefresh(refreshNoToken)
		c.settle("", err)
		return unauthorized
	case err != nil:
		c.metrics.observeRefresh(refreshFailure)
		c.settle("", err)
		c.expireSession(ctx, err)
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}

	c.metrics.observeRefresh(refreshSuccess)
	c.settle(access, nil)

	return c.send(ctx, r, access, result, nil)
}

// awaitRefresh ждет исхода текущего обновления и повторяет запрос с новым токеном
func (c *Client) awaitRefresh(ctx context.Context, w *waiter, r *request, result any, unauthorized *APIError) error {
	defer w.done()

	select {
	case res := <-w.result:
		switch {
		case errors.Is(res.err, errNoRefreshToken):
			return unauthorized
		case res.err != nil:
			return fmt.Errorf("%w: %w", ErrSessionExpired, res.err)
		}
		return c.send(ctx, r, res.token, result, w.done)
	case <-ctx.Done():
		return newNetworkError(ctx.Err())
	}
}

// settle снимает флаг обновления и отпускает очередь в порядке поступления.
// Следующий запрос отпускается только после отправки предыдущего.
func (c *Client) settle(token string, err error) {
	c.mu.Lock()
	c.refreshing = false
	queue := c.queue
	c.queue = nil
	c.metrics.setQueueLength(0)
	c.mu.Unlock()

	for _, w := range queue {
		w.result <- refreshResult{token: token, err: err}
		<-w.release
	}
}

// refreshAccess читает refresh token, обновляет и сохраняет токены
func (c *Client) refreshAccess(ctx context.Context) (string, error) {
	refresh, err := c.tokens.Token(ctx, storage.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to read refresh token: %w", err)
	}
	if refresh == "" {
		return "", errNoRefreshToken
	}

	tokens, err := c.Refresh(ctx, refresh)
	if err != nil {
		return "", err
	}

	if tokens.Refresh != refresh {
		err = c.tokens.SetTokens(ctx, tokens)
	} else {
		err = c.tokens.SetAccessToken(ctx, tokens.Access)
	}
	if err != nil {
		return "", fmt.Errorf("failed to save refreshed tokens: %w", err)
	}

	c.logger.DebugContext(ctx, "access token refreshed", "rotated", tokens.Refresh != refresh)
	return tokens.Access, nil
}

// expireSession очищает токены, оповещает обработчики и уводит на экран входа
func (c *Client) expireSession(ctx context.Context, cause error) {
	c.logger.WarnContext(ctx, "token refresh failed, session cleared", "error", cause)

	ctx = context.WithoutCancel(ctx)
	if err := c.tokens.Clear(ctx); err != nil {
		c.logger.ErrorContext(ctx, "failed to clear tokens", "error", err)
	}

	c.mu.Lock()
	hooks := append([]SessionHook(nil), c.expired...)
	c.mu.Unlock()
	for _, fn := range hooks {
		fn(ctx)
	}

	c.navigator.Redirect(ctx, LoginPath)
}

// progressReader сообщает о прогрессе чтения тела запроса
type progressReader struct {
	r     io.Reader
	fn    ProgressFunc
	total int64
	sent  int64
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.fn(p.sent, p.total)
	}
	return n, err
}
