package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/kudos-league/kudos-client/internal/domain"
)

// MessageStore holds the ordered, deduplicated message list for the channel
// that is currently open. Message ids are backend-assigned and monotonic, so
// id order is send order.
type MessageStore struct {
	mu        sync.RWMutex
	channelID int64
	messages  []domain.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{}
}

// Reset replaces the whole list, used when switching channels. The input is
// sorted by id and deduplicated; it is not retained.
func (s *MessageStore) Reset(channelID int64, messages []domain.Message) {
	sorted := make([]domain.Message, len(messages))
	copy(sorted, messages)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	deduped := sorted[:0]
	for i := range sorted {
		if i > 0 && sorted[i].ID == sorted[i-1].ID {
			continue
		}
		deduped = append(deduped, sorted[i])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelID = channelID
	s.messages = deduped
}

// ChannelID returns the channel the current contents belong to.
func (s *MessageStore) ChannelID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channelID
}

func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Messages returns a copy of the ordered list.
func (s *MessageStore) Messages() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Append inserts a message in id order. A message whose id is already present
// is skipped, so duplicate delivery (optimistic echo plus realtime event) is
// harmless. Reports whether the message was inserted.
func (s *MessageStore) Append(msg domain.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.messages)
	if n == 0 || msg.ID > s.messages[n-1].ID {
		s.messages = append(s.messages, msg)
		return true
	}

	i := sort.Search(n, func(i int) bool {
		return s.messages[i].ID >= msg.ID
	})
	if i < n && s.messages[i].ID == msg.ID {
		return false
	}

	s.messages = append(s.messages, domain.Message{})
	copy(s.messages[i+1:], s.messages[i:])
	s.messages[i] = msg
	return true
}

// Update replaces the stored message with the same id, used when the backend
// returns a richer updated record. Reports whether the id was found.
func (s *MessageStore) Update(msg domain.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.indexOf(msg.ID)
	if !ok {
		return false
	}
	s.messages[i] = msg
	return true
}

// MarkDeleted soft-marks a message as deleted in place, keeping it in the
// list so reply chains still resolve.
func (s *MessageStore) MarkDeleted(id int64, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.indexOf(id)
	if !ok {
		return false
	}
	s.messages[i].Content = ""
	s.messages[i].DeletedAt = &at
	return true
}

// Remove drops a message outright, used when no soft-delete record is
// available.
func (s *MessageStore) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.indexOf(id)
	if !ok {
		return false
	}
	s.messages = append(s.messages[:i], s.messages[i+1:]...)
	return true
}

// FindByID resolves a message by id. Absence is valid: a reply target may not
// be loaded, and the caller renders a fallback instead of failing.
func (s *MessageStore) FindByID(id int64) (domain.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.indexOf(id)
	if !ok {
		return domain.Message{}, false
	}
	return s.messages[i], true
}

// ReplyPreview returns the text to show for a reply target.
func (s *MessageStore) ReplyPreview(replyToID int64) string {
	msg, ok := s.FindByID(replyToID)
	if !ok {
		return "Message unavailable"
	}
	if msg.Deleted() {
		return "Deleted message"
	}
	return msg.Content
}

// GroupByAuthor produces maximal runs of consecutive same-author messages.
// It is a pure function of the current list and recomputed on demand.
func (s *MessageStore) GroupByAuthor() []domain.MessageGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var groups []domain.MessageGroup
	for _, msg := range s.messages {
		n := len(groups)
		if n > 0 && groups[n-1].AuthorID == msg.AuthorID {
			groups[n-1].Messages = append(groups[n-1].Messages, msg)
			continue
		}
		groups = append(groups, domain.MessageGroup{
			AuthorID: msg.AuthorID,
			Author:   msg.Author,
			Messages: []domain.Message{msg},
		})
	}
	return groups
}

// indexOf must be called with the lock held.
func (s *MessageStore) indexOf(id int64) (int, bool) {
	i := sort.Search(len(s.messages), func(i int) bool {
		return s.messages[i].ID >= id
	})
	if i < len(s.messages) && s.messages[i].ID == id {
		return i, true
	}
	return 0, false
}
