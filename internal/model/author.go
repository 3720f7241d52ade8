package model

// AuthorKind tags the three ways a message author resolves to a display name.
type AuthorKind int

const (
	// AuthorChat is a message posted anonymously on behalf of a chat or
	// channel; it displays as the chat's title.
	AuthorChat AuthorKind = iota
	// AuthorUser is a normal user post, displayed as "{full name}@{chat title}".
	AuthorUser
	// AuthorDeleted is a historical-export record whose account no longer
	// exists; only a stable from-id remains.
	AuthorDeleted
)

// Author is the resolved identity of a message author. It is built once at
// normalization time and collapsed to a display string via Display.
type Author struct {
	Kind AuthorKind

	// AuthorChat
	Title string

	// AuthorUser
	Name      string
	ChatTitle string

	// AuthorDeleted
	FromID     string
	SourceName string
}

// ChatAuthor resolves to the posting chat's title.
func ChatAuthor(title string) Author {
	return Author{Kind: AuthorChat, Title: title}
}

// UserAuthor resolves to "{name}@{chatTitle}".
func UserAuthor(name, chatTitle string) Author {
	return Author{Kind: AuthorUser, Name: name, ChatTitle: chatTitle}
}

// DeletedAuthor resolves to "已销号{fromID}@{sourceName}" for export records
// whose author deleted their account.
func DeletedAuthor(fromID, sourceName string) Author {
	return Author{Kind: AuthorDeleted, FromID: fromID, SourceName: sourceName}
}

// Display collapses the author variant to the string stored in Message.From.
func (a Author) Display() string {
	switch a.Kind {
	case AuthorChat:
		return a.Title
	case AuthorUser:
		return a.Name + "@" + a.ChatTitle
	case AuthorDeleted:
		return "已销号" + a.FromID + "@" + a.SourceName
	default:
		return ""
	}
}
