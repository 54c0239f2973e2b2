package dispatchfake

import (
	"sync"

	"github.com/opla/zoauth/applications"
	"github.com/opla/zoauth/notification"
)

var _ notification.Dispatcher = (*FakeDispatcher)(nil)

// Message records one dispatched notification.
type Message struct {
	Kind            string
	Email           string
	Username        string
	Policy          applications.ValidationPolicy
	ActivationToken string
}

// FakeDispatcher records every notification instead of sending it.
type FakeDispatcher struct {
	messages []Message
	lock     sync.Mutex
}

func NewFakeDispatcher() *FakeDispatcher {
	return &FakeDispatcher{}
}

func (fd *FakeDispatcher) SendUserCreated(email, username string, policy applications.ValidationPolicy, activationToken string) bool {
	fd.record(Message{Kind: "user_created", Email: email, Username: username, Policy: policy, ActivationToken: activationToken})
	return true
}

func (fd *FakeDispatcher) SendResetPassword(email, resetToken string) bool {
	fd.record(Message{Kind: "reset_password", Email: email, ActivationToken: resetToken})
	return true
}

func (fd *FakeDispatcher) SendChangedPassword(email string) bool {
	fd.record(Message{Kind: "changed_password", Email: email})
	return true
}

func (fd *FakeDispatcher) SendAccountEnable(email, username string) bool {
	fd.record(Message{Kind: "account_enable", Email: email, Username: username})
	return true
}

// Messages returns a copy of everything recorded so far.
func (fd *FakeDispatcher) Messages() []Message {
	fd.lock.Lock()
	defer fd.lock.Unlock()

	messages := make([]Message, len(fd.messages))
	copy(messages, fd.messages)
	return messages
}

// Last returns the most recent message of the given kind, or nil.
func (fd *FakeDispatcher) Last(kind string) *Message {
	fd.lock.Lock()
	defer fd.lock.Unlock()

	for i := len(fd.messages) - 1; i >= 0; i-- {
		if fd.messages[i].Kind == kind {
			message := fd.messages[i]
			return &message
		}
	}
	return nil
}

func (fd *FakeDispatcher) record(message Message) {
	fd.lock.Lock()
	defer fd.lock.Unlock()

	fd.messages = append(fd.messages, message)
}
