package drive

import "fmt"

// Key shapes are a stable storage format. Changing them orphans existing data.
const usersKey = "users"

func storageKey(username, namespace string) string {
	return fmt.Sprintf("storage_%s_%s", username, namespace)
}

func fileKey(username, namespace, fileID string) string {
	return fmt.Sprintf("file_%s_%s_%s", username, namespace, fileID)
}

func sessionKey(tokenID string) string {
	return "session_" + tokenID
}
