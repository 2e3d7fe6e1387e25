package user

// QueryUsersModel represents filter parameters for querying users.
type QueryUsersModel struct {
	Ids []int64
}
