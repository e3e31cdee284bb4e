package teaminfo

const (
	// DefaultBaseURL is the public uwhscores API
	DefaultBaseURL = "https://uwhscores.com/api/v1"

	gamePath = "/tournaments/%d/games/%d"
	teamPath = "/tournaments/%d/teams/%d"

	JsonHeader      = "Accept"
	JsonContentType = "application/json"
)
