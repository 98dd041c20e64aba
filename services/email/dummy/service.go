package dummymail

import (
	"sync"

	"github.com/ebusmomentum88/school-portal-backend/core"
)

// Service records rendered messages instead of sending them; tests inspect
// SentMessages().
type Service struct {
	mutex sync.Mutex
	sent  []core.EmailMessage
}

var _ core.EmailService = (*Service)(nil)

func NewService() *Service {
	return &Service{}
}

// SendMessages renders and records messages synchronously so tests can assert
// immediately after the call.
func (svc *Service) SendMessages(messages ...*core.EmailMessage) {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	for _, msg := range messages {
		_ = msg.Render()
		svc.sent = append(svc.sent, *msg)
	}
}

func (svc *Service) SentMessages() []core.EmailMessage {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	return append([]core.EmailMessage(nil), svc.sent...)
}
