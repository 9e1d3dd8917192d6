package models

// Message - сохраненный фрагмент. UserID копируется из категории.
type Message struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	UserID         int64     `gorm:"not null;index"`
	CategoryID     int64     `gorm:"not null;index"`
	Text           string    `gorm:"type:text;not null"`
	OriginalChat   *string   `gorm:"type:text"`
	OriginalSender *string   `gorm:"type:text"`
	ForwardDate    *string   `gorm:"type:text"`
	SavedAt        Timestamp `gorm:"not null"`

	Link *MessageLink `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE"`
}

func (Message) TableName() string {
	return "messages"
}

// MessageLink - куда легла архивная копия сообщения.
type MessageLink struct {
	MessageID          int64 `gorm:"primaryKey;autoIncrement:false"`
	ForwardedChatID    int64 `gorm:"not null"`
	ForwardedMessageID int64 `gorm:"not null"`
}

func (MessageLink) TableName() string {
	return "message_links"
}

// MessageRow - строка списка /list.
type MessageRow struct {
	ID              int64
	Text            string
	SavedAt         Timestamp
	LinkedChatID    *int64
	LinkedMessageID *int64
}

// SearchRow - одна находка поиска.
type SearchRow struct {
	CategoryName    string
	Text            string
	SavedAt         Timestamp
	LinkedChatID    *int64
	LinkedMessageID *int64
}
