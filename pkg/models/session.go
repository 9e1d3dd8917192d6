package models

// CategoryRef - id и имя категории для клавиатуры выбора.
type CategoryRef struct {
	ID   int64
	Name string
}

// Snippet - входящий текст с метаданными исходного сообщения.
type Snippet struct {
	Text           string
	OriginalChat   *string
	OriginalSender *string
	ForwardDate    *string

	// Откуда пришел фрагмент, для копирования в архив
	SourceChatID    int64
	SourceMessageID int
}

// PendingSnippet - фрагмент, ожидающий выбора категории, и предложенные тогда категории.
type PendingSnippet struct {
	Snippet
	Categories map[int64]string
}

// SessionState - текущее состояние сессии пользователя.
type SessionState int

const (
	StateIdle SessionState = iota
	StateAwaitingCategoryChoice
	StateAwaitingNewCategoryName
)

func (s SessionState) String() string {
	switch s {
	case StateAwaitingCategoryChoice:
		return "awaiting_category_choice"
	case StateAwaitingNewCategoryName:
		return "awaiting_new_category_name"
	default:
		return "idle"
	}
}

// Session хранит оба ожидания пользователя. Они независимы: запрос имени
// категории не сбрасывает отложенный фрагмент.
type Session struct {
	AwaitingCategoryName bool
	Pending              *PendingSnippet
}

// State - на что отвечает следующее сообщение. Ожидание имени категории
// важнее отложенного фрагмента.
func (s Session) State() SessionState {
	switch {
	case s.AwaitingCategoryName:
		return StateAwaitingNewCategoryName
	case s.Pending != nil:
		return StateAwaitingCategoryChoice
	default:
		return StateIdle
	}
}

func (s Session) IsIdle() bool {
	return s.State() == StateIdle
}

// NewPendingSnippet запоминает фрагмент вместе со снимком категорий.
func NewPendingSnippet(snippet Snippet, categories []CategoryRef) *PendingSnippet {
	snapshot := make(map[int64]string, len(categories))
	for _, c := range categories {
		snapshot[c.ID] = c.Name
	}
	return &PendingSnippet{Snippet: snippet, Categories: snapshot}
}
