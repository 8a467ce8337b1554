// presenter.go — окно одноразового показа учётных данных.
//
// Состояния: closed → open → sending → sent (автозакрытие) или open_error.
// Закрытие из любого состояния очищает учётные данные безусловно.
// Ошибка отправки письма остаётся внутри окна: пароль по-прежнему
// доступен для ручного копирования.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
	"github.com/sportsreelstechnical/version-1-sub001/internal/mailer"
)

// emailDispatchTotal — попытки отправки писем по результату.
var emailDispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ca_email_dispatch_total",
	Help: "Количество попыток отправки учётных данных по email.",
}, []string{"result"})

// Задержки по умолчанию.
const (
	DefaultSentCloseDelay = 2 * time.Second
	DefaultCopyResetDelay = 2 * time.Second
)

// PresenterState — состояние окна показа.
type PresenterState string

const (
	StateClosed    PresenterState = "closed"
	StateOpen      PresenterState = "open"
	StateSending   PresenterState = "sending"
	StateSent      PresenterState = "sent"
	StateOpenError PresenterState = "open_error"
)

// Field — копируемое поле учётных данных.
type Field string

const (
	FieldEmail    Field = "email"
	FieldUsername Field = "username"
	FieldPassword Field = "password"
)

// Clipboard — буфер обмена оператора.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// CredentialHolder — хранилище последних учётных данных (генератор).
type CredentialHolder interface {
	ClearCredentials()
}

// PresenterView — снимок состояния окна для отрисовки.
type PresenterView struct {
	State      PresenterState
	Credential *model.Credential
	Error      string
	Copied     map[Field]bool
}

// CredentialPresenter — окно одноразового показа учётных данных.
type CredentialPresenter struct {
	dispatcher     mailer.Dispatcher
	clipboard      Clipboard
	holder         CredentialHolder
	sentCloseDelay time.Duration
	copyResetDelay time.Duration
	logger         *slog.Logger

	mu     sync.Mutex
	state  PresenterState
	cred   *model.Credential
	errMsg string
	copied map[Field]bool
	// epoch растёт при каждом закрытии; таймеры прошлых открытий игнорируются.
	epoch uint64
	// timers — отложенные действия по имени; повторное планирование
	// перезапускает таймер с тем же именем.
	timers map[string]*time.Timer
}

// PresenterOption — опция окна показа.
type PresenterOption func(*CredentialPresenter)

// WithDelays задаёт задержку автозакрытия после отправки и сброса флага «скопировано».
func WithDelays(sentClose, copyReset time.Duration) PresenterOption {
	return func(p *CredentialPresenter) {
		p.sentCloseDelay = sentClose
		p.copyResetDelay = copyReset
	}
}

// WithHolder связывает окно с генератором: закрытие очищает и его состояние.
func WithHolder(h CredentialHolder) PresenterOption {
	return func(p *CredentialPresenter) {
		p.holder = h
	}
}

// NewCredentialPresenter создаёт окно показа в состоянии closed.
// clipboard может быть nil — копирование тогда недоступно.
func NewCredentialPresenter(dispatcher mailer.Dispatcher, clipboard Clipboard, logger *slog.Logger, opts ...PresenterOption) *CredentialPresenter {
	p := &CredentialPresenter{
		dispatcher:     dispatcher,
		clipboard:      clipboard,
		sentCloseDelay: DefaultSentCloseDelay,
		copyResetDelay: DefaultCopyResetDelay,
		logger:         logger.With(slog.String("component", "credential_presenter")),
		state:          StateClosed,
		copied:         map[Field]bool{},
		timers:         map[string]*time.Timer{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open показывает учётные данные. Допустимо только из closed.
func (p *CredentialPresenter) Open(cred *model.Credential) error {
	if cred == nil {
		return fmt.Errorf("%w: нет учётных данных для показа", ErrValidation)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateClosed {
		return fmt.Errorf("%w: окно уже открыто (%s)", ErrInvalidState, p.state)
	}
	p.state = StateOpen
	p.cred = cred.Clone()
	p.errMsg = ""
	p.copied = map[Field]bool{}
	return nil
}

// SendEmail отправляет учётные данные письмом.
// Ошибка отправки не возвращается: окно переходит в open_error с сообщением.
// Возвращается только ErrInvalidState, если окно не открыто.
func (p *CredentialPresenter) SendEmail(ctx context.Context) error {
	p.mu.Lock()
	if p.state != StateOpen && p.state != StateOpenError {
		state := p.state
		p.mu.Unlock()
		return fmt.Errorf("%w: отправка из состояния %s", ErrInvalidState, state)
	}
	if p.dispatcher == nil {
		p.state = StateOpenError
		p.errMsg = mailer.ErrNotConfigured.Error()
		p.mu.Unlock()
		return nil
	}
	p.state = StateSending
	p.errMsg = ""
	epoch := p.epoch
	msg := mailer.MessageFromCredential(p.cred)
	p.mu.Unlock()

	err := p.dispatcher.Send(ctx, msg)

	p.mu.Lock()
	defer p.mu.Unlock()

	// Окно закрыли, пока шла отправка: результат никому не нужен.
	if p.epoch != epoch {
		return nil
	}

	if err != nil {
		emailDispatchTotal.WithLabelValues("error").Inc()
		dispatchErr := &CredentialError{Kind: KindDispatch, Message: err.Error(), Err: err}
		p.logger.Warn("Отправка учётных данных не удалась",
			slog.String("error", dispatchErr.Error()),
		)
		p.state = StateOpenError
		p.errMsg = err.Error()
		return nil
	}

	emailDispatchTotal.WithLabelValues("ok").Inc()
	p.state = StateSent
	p.schedule("close", p.sentCloseDelay, epoch, p.closeLocked)
	return nil
}

// Close закрывает окно и очищает учётные данные. Идемпотентен.
func (p *CredentialPresenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
}

func (p *CredentialPresenter) closeLocked() {
	for _, t := range p.timers {
		t.Stop()
	}
	p.timers = map[string]*time.Timer{}
	p.epoch++
	p.state = StateClosed
	p.cred = nil
	p.errMsg = ""
	p.copied = map[Field]bool{}
	if p.holder != nil {
		p.holder.ClearCredentials()
	}
}

// Copy копирует поле в буфер обмена. Сбой копирования только логируется.
func (p *CredentialPresenter) Copy(ctx context.Context, field Field) error {
	p.mu.Lock()
	if p.cred == nil || p.state == StateClosed {
		p.mu.Unlock()
		return fmt.Errorf("%w: нечего копировать", ErrInvalidState)
	}
	var value string
	switch field {
	case FieldEmail:
		value = p.cred.Email
	case FieldUsername:
		value = p.cred.Username
	case FieldPassword:
		value = p.cred.Password
	default:
		p.mu.Unlock()
		return fmt.Errorf("%w: неизвестное поле %q", ErrValidation, field)
	}
	epoch := p.epoch
	p.mu.Unlock()

	if p.clipboard == nil {
		p.logger.Warn("Буфер обмена недоступен", slog.String("field", string(field)))
		return nil
	}
	if err := p.clipboard.WriteText(ctx, value); err != nil {
		p.logger.Warn("Не удалось скопировать поле",
			slog.String("field", string(field)),
			slog.String("error", err.Error()),
		)
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.epoch != epoch {
		return nil
	}
	p.copied[field] = true
	p.schedule("copied:"+string(field), p.copyResetDelay, epoch, func() {
		delete(p.copied, field)
	})
	return nil
}

// View возвращает снимок состояния.
func (p *CredentialPresenter) View() PresenterView {
	p.mu.Lock()
	defer p.mu.Unlock()

	copied := make(map[Field]bool, len(p.copied))
	for k, v := range p.copied {
		copied[k] = v
	}
	return PresenterView{
		State:      p.state,
		Credential: p.cred.Clone(),
		Error:      p.errMsg,
		Copied:     copied,
	}
}

// schedule выполняет fn под мьютексом через d, если окно не закрывали
// и таймер name не перезапускали. Вызывается с захваченным мьютексом.
func (p *CredentialPresenter) schedule(name string, d time.Duration, epoch uint64, fn func()) {
	if prev, ok := p.timers[name]; ok {
		prev.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.epoch != epoch || p.timers[name] != t {
			return
		}
		delete(p.timers, name)
		fn()
	})
	p.timers[name] = t
}
