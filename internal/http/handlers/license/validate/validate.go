// Package validate реализует HTTP-обработчик валидации лицензии советника.
//
// Обработчик говорит на проводном формате терминала MetaTrader: ключ API
// приходит в заголовке X-API-Key, ответ всегда содержит поле valid и
// человеко-читаемое сообщение. Единый конверт кабинета здесь не
// используется, формат зафиксирован клиентской библиотекой советников.
package validate

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/myalgostack/license-server/internal/lib/sl"
	"github.com/myalgostack/license-server/internal/models"
	"github.com/myalgostack/license-server/internal/services"
)

// Handler управляет HTTP-запросами на валидацию лицензий.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики валидации лицензии.
type Service interface {
	Validate(ctx context.Context, apiKey, ipAddress string, req *models.LicenseRequest) (*services.ValidationResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// validateResponse — проводной формат ответа валидации.
type validateResponse struct {
	Valid            bool   `json:"valid"`
	Message          string `json:"message"`
	ErrorCode        string `json:"errorCode,omitempty"`
	GracePeriodHours int    `json:"gracePeriodHours,omitempty"`
	ServerTime       string `json:"serverTime,omitempty"`
	RetryAfter       int    `json:"retryAfter,omitempty"`
}

// ServeHTTP godoc
// @Summary Валидация лицензии советника
// @Description Проверяет ключ API, доступ к советнику и привязку торгового счета. Используется советниками из терминала MetaTrader.
// @Tags License
// @Accept  json
// @Produce  json
// @Param X-API-Key header string true "Ключ API пользователя"
// @Param request body models.LicenseRequest true "Данные советника и счета"
// @Success 200 {object} validateResponse "Лицензия действительна"
// @Failure 401 {object} validateResponse "Неверный или отсутствующий ключ API"
// @Failure 403 {object} validateResponse "Доступ запрещен"
// @Failure 404 {object} validateResponse "Советник не найден"
// @Failure 429 {object} validateResponse "Превышен лимит запросов"
// @Router /validate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.license.validate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	apiKey := r.Header.Get("X-API-Key")
	ipAddress := clientIP(r)

	var req models.LicenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, validateResponse{
			Valid:     false,
			Message:   "Invalid request body",
			ErrorCode: models.CodeServerError,
		})
		return
	}

	result, err := h.service.Validate(r.Context(), apiKey, ipAddress, &req)
	if err != nil {
		log.Error("validation failed with storage error", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, validateResponse{
			Valid:     false,
			Message:   "Internal server error",
			ErrorCode: models.CodeServerError,
		})
		return
	}

	if result.Valid {
		render.JSON(w, r, validateResponse{
			Valid:            true,
			Message:          result.Message,
			GracePeriodHours: result.GracePeriodHours,
			ServerTime:       result.ServerTime.UTC().Format(time.RFC3339),
		})
		return
	}

	resp := validateResponse{
		Valid:     false,
		Message:   result.Message,
		ErrorCode: result.ErrorCode,
	}
	if result.RateLimit != nil {
		retryAfter := int(math.Ceil(time.Until(result.RateLimit.ResetTime).Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		resp.RetryAfter = retryAfter
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.RateLimit.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.RateLimit.ResetTime.UnixMilli(), 10))
	}
	w.WriteHeader(result.StatusCode)
	render.JSON(w, r, resp)
}

// clientIP извлекает адрес клиента: первый адрес из X-Forwarded-For,
// иначе адрес соединения.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
