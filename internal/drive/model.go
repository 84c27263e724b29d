package drive

// Account is a registered user. The namespace token scopes all of the
// account's storage keys and is assigned once at registration.
type Account struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Namespace    string `json:"-"`
	CreatedAt    int64  `json:"created_at"`
}

// FileMetadata describes one stored file. The payload bytes live under a
// separate key derived from the same ID.
type FileMetadata struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
	LastModified int64  `json:"last_modified"`
}

// StorageRecord holds an account's file list and quota accounting.
// UsedBytes must equal the sum of file sizes after every mutation.
type StorageRecord struct {
	Files         []FileMetadata `json:"files"`
	UsedBytes     int64          `json:"used_bytes"`
	CapacityBytes int64          `json:"capacity_bytes"`
}

type storedAccount struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Namespace    string `json:"namespace"`
	CreatedAt    int64  `json:"created_at"`
}

func (s storedAccount) account() *Account {
	return &Account{
		Username:     s.Username,
		PasswordHash: s.PasswordHash,
		Namespace:    s.Namespace,
		CreatedAt:    s.CreatedAt,
	}
}
