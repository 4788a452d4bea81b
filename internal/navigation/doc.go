// Package navigation decides which surfaces a role may open.
//
// The role to surface mapping is static and total over auth.ValidRoles.
// A role outside that set never gets a surface: the Router logs the
// operator out and returns a fixed access-denied notice instead.
package navigation
