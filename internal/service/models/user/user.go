package user

import "time"

// User represents a customer account.
type User struct {
	ID        int64
	Name      string
	Email     string
	Phone     *string
	CreatedAt time.Time
	// OrderIDs lists the ids of the user's orders, ascending.
	OrderIDs []int64
}

// UpdateUserModel carries a partial update; nil fields keep their stored value.
type UpdateUserModel struct {
	Name  *string
	Email *string
	Phone *string
	// ClearPhone removes the stored phone. It takes precedence over Phone.
	ClearPhone bool
}

// IsEmpty reports whether the update changes nothing.
func (m UpdateUserModel) IsEmpty() bool {
	return m.Name == nil && m.Email == nil && m.Phone == nil && !m.ClearPhone
}

// OrderCount is the number of orders placed by one user.
type OrderCount struct {
	UserID      int64
	UserName    string
	TotalOrders int64
}
