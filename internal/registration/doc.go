// Package registration lets a booth administrator enrol new booth staff.
//
// The new account gets role estande and a first-access password equal to
// its email, so the staff member is sent through password creation on
// their first login. The account is then linked to the administrator's
// own company.
package registration
