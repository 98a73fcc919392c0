package session

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lvthome/lvtbridge/domain/entities"
	"github.com/lvthome/lvtbridge/domain/repositories"
	"github.com/lvthome/lvtbridge/internal/protocol"
)

const (
	readinessGrace   = 30 * time.Second
	readinessPoll    = time.Second
	syncInterval     = 10 * time.Second
	heartbeatPeriod  = 10 * time.Second
	writeTimeout     = 10 * time.Second
	handshakeTimeout = 10 * time.Second
)

// Variables so tests can shorten the connection retry cadence.
var (
	reconnectBackoff = 5 * time.Second
	authTimeout      = 5 * time.Second
)

// Platforms that must signal readiness before the client connects.
var RequiredPlatforms = []string{"online", "volume", "filter"}

var (
	errAuthTimeout  = errors.New("no authorization response within deadline")
	errAuthRejected = errors.New("authentication rejected by server")
)

// Session owns one configured connection to an LVT server: credentials, the
// outbound queue, the speaker registry, trigger registrations, and the
// single background goroutine running the connection state machine.
type Session struct {
	logger *zap.Logger

	queue    *protocol.Queue
	registry *Registry

	intentHandler repositories.IntentHandler
	publisher     repositories.IntentPublisher
	onlineEntity  entities.OnlineEntity

	mu         sync.Mutex
	server     string
	port       int
	password   string
	sslMode    int
	online     bool
	authorized bool
	taskID     string
	cancel     context.CancelFunc
	done       chan struct{}

	platformMu sync.Mutex
	platforms  map[string]bool

	triggerMu sync.Mutex
	triggers  []entities.TriggerRegistration

	intentMu sync.Mutex
	intents  []entities.IntentDefinition

	syncMu         sync.Mutex
	speakersSynced time.Time
}

func New(registry *Registry, intentHandler repositories.IntentHandler, logger *zap.Logger) *Session {
	return &Session{
		logger:        logger,
		queue:         protocol.NewQueue(),
		registry:      registry,
		intentHandler: intentHandler,
		platforms:     make(map[string]bool),
	}
}

// SetPublisher installs an optional event bus sink for fired intents.
func (s *Session) SetPublisher(p repositories.IntentPublisher) {
	s.publisher = p
}

// SetOnlineEntity installs the server-connectivity entity handle.
func (s *Session) SetOnlineEntity(e entities.OnlineEntity) {
	s.onlineEntity = e
}

// SetIntents replaces the locally configured intent batch.
func (s *Session) SetIntents(defs []entities.IntentDefinition) {
	s.intentMu.Lock()
	defer s.intentMu.Unlock()
	s.intents = defs
}

// Intents returns the locally configured intent batch.
func (s *Session) Intents() []entities.IntentDefinition {
	s.intentMu.Lock()
	defer s.intentMu.Unlock()
	return append([]entities.IntentDefinition(nil), s.intents...)
}

// Registry exposes the speaker registry to collaborators.
func (s *Session) Registry() *Registry {
	return s.registry
}

// PlatformLoaded records that a presentation platform finished loading.
// The client connects only once all required platforms have reported in.
func (s *Session) PlatformLoaded(name string) {
	s.platformMu.Lock()
	defer s.platformMu.Unlock()
	s.platforms[name] = true
}

func (s *Session) platformsLoaded() bool {
	s.platformMu.Lock()
	defer s.platformMu.Unlock()
	for _, name := range RequiredPlatforms {
		if !s.platforms[name] {
			return false
		}
	}
	return true
}

// Configure sets the connection target. Any running client is stopped first;
// speakers for persisted device records are recreated, then the client is
// started against the new target.
func (s *Session) Configure(server string, port int, password string, sslMode int) {
	s.Stop()

	s.mu.Lock()
	if server == "" {
		server = "127.0.0.1"
	}
	if port == 0 {
		port = 2700
	}
	if sslMode < 0 || sslMode > 2 {
		sslMode = 0
	}
	s.server = server
	s.port = port
	s.password = password
	s.sslMode = sslMode
	s.online = false
	s.authorized = false
	s.mu.Unlock()

	s.registry.SeedFromDevices(context.Background())
	s.Start()
}

// Start launches the background client goroutine. Starting a started
// session is a no-op.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	s.taskID = uuid.NewString()
	s.logger.Debug("Starting websocket client", zap.String("task", s.taskID))

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
}

// Stop cancels the background client and waits for it to exit, closing any
// open transport. Safe to call when already stopped.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	s.logger.Debug("Stopping websocket client")
	cancel()
	<-done
}

// Started reports whether the background client goroutine is running.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Session) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Authorized implies Online.
func (s *Session) Authorized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authorized
}

func (s *Session) Server() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server
}

func (s *Session) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *Session) SSLMode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sslMode
}

func (s *Session) connectionTarget() (server string, port int, password string, sslMode int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server, s.port, s.password, s.sslMode
}

func (s *Session) setOnline(online bool) {
	s.mu.Lock()
	changed := online != s.online
	s.online = online
	if !online {
		s.authorized = false
	}
	s.mu.Unlock()

	if changed {
		if online {
			s.logger.Debug("Connected to LVT server")
		} else {
			s.logger.Debug("Disconnected from LVT server")
		}
	}
	if s.onlineEntity != nil {
		s.onlineEntity.SetOnline(online)
	}
	s.registry.SetServerOnline(online)
}

func (s *Session) setAuthorized() {
	s.mu.Lock()
	s.authorized = true
	s.mu.Unlock()
}

// Send queues an envelope for transmission. Payloads that fail to serialize
// are dropped with a logged error.
func (s *Session) Send(message string, payload any) {
	env, err := protocol.NewEnvelope(message, 0, "", payload)
	if err != nil {
		s.logger.Error("Error encoding message", zap.String("message", message), zap.Error(err))
		return
	}
	s.queue.Enqueue(env)
}

// SynchronizeSpeakers pushes desired state of every out-of-sync speaker to
// the server in one Status message.
func (s *Session) SynchronizeSpeakers() {
	s.markSynced()
	payload := s.registry.OutOfSyncPayload()
	if len(payload) > 0 {
		s.Send(protocol.MsgStatus, payload)
	}
}

func (s *Session) sendIntents() {
	s.Send(protocol.MsgSetIntents, s.Intents())
}

func (s *Session) markSynced() {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	s.speakersSynced = time.Now()
}

func (s *Session) sinceSynced() time.Duration {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	return time.Since(s.speakersSynced)
}

// readyReason reports whether the connect preconditions hold, and if not,
// which one is unmet.
func (s *Session) readyReason() (string, bool) {
	if !s.platformsLoaded() {
		return "not all platforms loaded", false
	}
	server, port, password, _ := s.connectionTarget()
	if server == "" || port == 0 || password == "" {
		return "missing connection config, please consult the LVT documentation", false
	}
	return "", true
}

// run is the connection state machine loop. It lives for the Session
// lifetime: waiting for readiness, connecting, and reconnecting with a
// fixed backoff until cancelled.
func (s *Session) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	s.logger.Debug("Waiting for configuration and platforms",
		zap.Strings("platforms", RequiredPlatforms))

	waitStarted := time.Now()
	reported := false
	for {
		if ctx.Err() != nil {
			return
		}

		if reason, ok := s.readyReason(); !ok {
			if time.Since(waitStarted) > readinessGrace && !reported {
				reported = true
				s.logger.Error("LVT client is not ready", zap.String("reason", reason))
			}
			if !sleepCtx(ctx, readinessPoll) {
				return
			}
			continue
		}
		reported = false

		err := s.connectOnce(ctx)
		if ctx.Err() != nil {
			s.logger.Debug("LVT client stopped")
			return
		}
		if err != nil {
			s.logger.Warn("Connection error", zap.Error(err))
			if !sleepCtx(ctx, reconnectBackoff) {
				return
			}
		}
		waitStarted = time.Now()
	}
}

// connectOnce opens the transport and services it until close, error, or
// cancellation. A nil return means a clean server close; the caller
// reconnects immediately. An error return is followed by the standard
// backoff.
func (s *Session) connectOnce(ctx context.Context) error {
	server, port, password, sslMode := s.connectionTarget()
	url := fmt.Sprintf("%s://%s:%d/api", wsScheme(sslMode), server, port)
	s.logger.Debug("Connecting", zap.String("url", url))

	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
		TLSClientConfig:  tlsConfig(sslMode),
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", url, err)
	}
	defer conn.Close()

	s.markSynced()
	s.setOnline(true)
	defer s.setOnline(false)

	if password != "" {
		s.Send(protocol.MsgAuthorize, password)
	}

	// The reader is bound to this connection, not the session: cancelling
	// connCtx on return unblocks it even when nobody drains frames anymore.
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan []byte, 8)
	readErr := make(chan error, 1)
	go func() {
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			select {
			case frames <- data:
			case <-connCtx.Done():
				return
			}
		}
	}()

	send := func(env protocol.Envelope) error {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return conn.WriteJSON(env)
	}
	flush := func() error { return s.queue.Drain(send) }
	if err := flush(); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	authTimer := time.NewTimer(authTimeout)
	defer authTimer.Stop()
	syncTicker := time.NewTicker(syncInterval)
	defer syncTicker.Stop()
	heartbeat := time.NewTicker(heartbeatPeriod)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(time.Second)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return nil

		case <-authTimer.C:
			if !s.Authorized() {
				s.logger.Error("Not authorized!")
				return errAuthTimeout
			}

		case <-heartbeat.C:
			deadline := time.Now().Add(writeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return fmt.Errorf("heartbeat: %w", err)
			}

		case <-syncTicker.C:
			if s.sinceSynced() > syncInterval {
				s.SynchronizeSpeakers()
			}
			if err := flush(); err != nil {
				return fmt.Errorf("send: %w", err)
			}

		case <-s.queue.Notify():
			if err := flush(); err != nil {
				return fmt.Errorf("send: %w", err)
			}

		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("receive: %w", err)

		case frame := <-frames:
			in, err := protocol.Decode(frame)
			if err != nil {
				s.logger.Debug("Dropping malformed frame", zap.Error(err))
				continue
			}
			if err := s.dispatch(ctx, in); err != nil {
				return err
			}
			if err := flush(); err != nil {
				return fmt.Errorf("send: %w", err)
			}
		}
	}
}

func wsScheme(sslMode int) string {
	if sslMode > 0 {
		return "wss"
	}
	return "ws"
}

// tlsConfig returns the TLS client configuration for the security mode:
// nil for mode 0, no peer verification for mode 1, full verification for
// mode 2.
func tlsConfig(sslMode int) *tls.Config {
	switch sslMode {
	case 1:
		return &tls.Config{InsecureSkipVerify: true}
	case 2:
		return &tls.Config{}
	default:
		return nil
	}
}

// sleepCtx sleeps for d unless ctx is cancelled first, reporting whether the
// full duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
