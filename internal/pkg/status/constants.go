package status

//Status represents booking status
type Status int

const (
	// Pending - waiting for a translator
	Pending Status = iota + 1
	// Assigned - translator accepted
	Assigned
	// Started - session is running
	Started
	// Completed - final step
	Completed
	// WithdrawBefore24 - cancelled by customer more than 24h before due
	WithdrawBefore24
	// WithdrawAfter24 - cancelled by customer less than 24h before due
	WithdrawAfter24
	// TimedOut - nobody accepted or closed by admin
	TimedOut
	// NotCarriedOutCustomer - customer did not show up
	NotCarriedOutCustomer
)

var (
	statusName = map[Status]string{Pending: "pending", Assigned: "assigned", Started: "started",
		Completed: "completed", WithdrawBefore24: "withdrawbefore24", WithdrawAfter24: "withdrawafter24",
		TimedOut: "timedout", NotCarriedOutCustomer: "not_carried_out_customer"}
	nameStatus = map[string]Status{"pending": Pending, "assigned": Assigned, "started": Started,
		"completed": Completed, "withdrawbefore24": WithdrawBefore24, "withdrawafter24": WithdrawAfter24,
		"timedout": TimedOut, "not_carried_out_customer": NotCarriedOutCustomer}
)

func (st Status) String() string {
	return statusName[st]
}

// From returns status obj from string
func From(st string) Status {
	return nameStatus[st]
}

// Valid returns true for known statuses
func (st Status) Valid() bool {
	_, ok := statusName[st]
	return ok
}

// Current returns true for statuses of bookings that are not finished yet
func (st Status) Current() bool {
	return st == Pending || st == Assigned || st == Started
}

// Historic lists statuses shown in booking history
func Historic() []Status {
	return []Status{Completed, WithdrawBefore24, WithdrawAfter24, TimedOut}
}

// MarshalText implements encoding.TextMarshaler
func (st Status) MarshalText() ([]byte, error) {
	return []byte(st.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, unknown values map to 0
func (st *Status) UnmarshalText(b []byte) error {
	*st = From(string(b))
	return nil
}
