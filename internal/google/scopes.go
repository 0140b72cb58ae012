package google

// CalendarScope grants read and write access to the user's calendars.
const CalendarScope = "https://www.googleapis.com/auth/calendar"

// DefaultScopes are requested during consent.
var DefaultScopes = []string{CalendarScope}
