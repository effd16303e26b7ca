package pushsvc

import (
	"context"
	"fmt"
	"sync"

	"github.com/trezcool/rollcall/core"
)

type consoleService struct {
	logger core.Logger
}

var _ core.PushService = (*consoleService)(nil)

// NewConsoleService returns a PushService logging the messages instead of delivering them.
func NewConsoleService(logger core.Logger) core.PushService {
	return &consoleService{logger: logger}
}

func (svc *consoleService) Send(_ context.Context, msg *core.PushMessage) error {
	svc.logger.Info(fmt.Sprintf("push to %s: %s: %s", msg.Token, msg.Title, msg.Body), msg.Data)
	return nil
}

// ServiceMock records the messages it is asked to send. Tokens listed in Failures fail with the mapped error.
type ServiceMock struct {
	mu       sync.Mutex
	sent     []core.PushMessage
	Failures map[string]error
}

var _ core.PushService = (*ServiceMock)(nil)

func NewServiceMock() *ServiceMock {
	return &ServiceMock{Failures: make(map[string]error)}
}

func (svc *ServiceMock) Send(_ context.Context, msg *core.PushMessage) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if err, ok := svc.Failures[msg.Token]; ok {
		return err
	}
	svc.sent = append(svc.sent, *msg)
	return nil
}

func (svc *ServiceMock) Sent() []core.PushMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.PushMessage(nil), svc.sent...)
}

func (svc *ServiceMock) Reset() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.sent = nil
	svc.Failures = make(map[string]error)
}
