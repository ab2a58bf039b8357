package messages

const (
	BadStatusCodeMsg      = "API returned status code %d on URL %s"
	CouldNotFindId        = "couldn't find the %s Id"
	FailedToParseMsg      = "failed to parse API response"
	FiltersNotNil         = "filters can't be nil"
	OperationInProgress   = "operation already in progress, please wait"
	RequestFailedMsg      = "API request failed on URL %s"
	UsernameNotProvided   = "%s username not provided"
	InvalidUsernameFormat = "invalid %s username format"
	RefreshLimitReached   = "you can only refresh stats %d times per hour"
	EntryNotRanked        = "user not found in leaderboard"
	UnknownMessageType    = "unknown message type"
	InvalidMessage        = "failed to process message"
	InvalidRoom           = "invalid room %q"
	RoomNotOwned          = "room %q belongs to another user"
	Unauthorized          = "authentication required"
	Forbidden             = "admin privileges required"
)
