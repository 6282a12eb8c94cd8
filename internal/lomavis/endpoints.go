package lomavis

import (
	"net/url"
	"strings"
)

const DefaultBaseURL = "https://app.lomavis.com/lomavis_publishing_api/v1"

// Paths relative to the base URL.
const (
	pathApprovalProcesses = "/approvalprocesses/"
	pathMedia             = "/media/"
	pathPosts             = "/multiplatformsocialmediaposts/"
	pathProfileGroups     = "/profile_groups/"
	pathCompetitors       = "/competitors/"
)

func pathPost(uuid string) string {
	return pathPosts + url.PathEscape(uuid) + "/"
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
