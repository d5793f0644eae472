package rediskey

import "fmt"

const (
	RevalidateChannel = "backoffice:revalidate"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// LicensesPath is the list view of an account's licenses.
func LicensesPath(slug string) string {
	return fmt.Sprintf("/home/%s/licenses", slug)
}

func LicensePath(slug, licenseID string) string {
	return fmt.Sprintf("/home/%s/licenses/%s", slug, licenseID)
}

func MembersPath(slug string) string {
	return fmt.Sprintf("/home/%s/members", slug)
}

func MemberPath(slug, userID string) string {
	return fmt.Sprintf("/home/%s/members/%s", slug, userID)
}

func AssetsPath(slug string) string {
	return fmt.Sprintf("/home/%s/assets", slug)
}
