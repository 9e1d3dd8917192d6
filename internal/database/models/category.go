package models

// Category - именованная категория пользователя. Имя уникально в пределах
// пользователя и хранится в исходном регистре.
type Category struct {
	ID     int64  `gorm:"primaryKey;autoIncrement"`
	UserID int64  `gorm:"not null;uniqueIndex:idx_categories_user_name"`
	Name   string `gorm:"size:255;not null;uniqueIndex:idx_categories_user_name"`

	Messages []Message       `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	Active   []ActiveCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

func (Category) TableName() string {
	return "categories"
}

// ActiveCategory - категория, куда сохраняются сообщения без выбора.
type ActiveCategory struct {
	UserID     int64 `gorm:"primaryKey;autoIncrement:false"`
	CategoryID int64 `gorm:"not null"`
}

func (ActiveCategory) TableName() string {
	return "active_categories"
}

// StorageChannel - архивный канал, привязанный через /setchannel.
type StorageChannel struct {
	UserID int64 `gorm:"primaryKey;autoIncrement:false"`
	ChatID int64 `gorm:"not null"`
}

func (StorageChannel) TableName() string {
	return "storage_channels"
}
