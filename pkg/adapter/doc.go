// Package adapter defines the error taxonomy and configuration contracts
// shared by the SAP HANA backend.
//
// Callers see a small, stable set of error kinds regardless of which
// driver-specific failure occurred:
//
//   - ConfigurationError: a required connection parameter is missing,
//     detected before any network activity.
//   - ConnectionError: the physical session could not be established.
//   - IntegrityError: the database reported a constraint violation,
//     identified by a fixed set of numeric error codes.
//   - DatabaseError: catch-all for any other driver-reported failure.
//   - TransactionManagementError: a managed transaction block was left with
//     unresolved pending writes, or management calls were unbalanced.
//
// Every error kind preserves the original driver error through Unwrap, so
// diagnostic context survives the re-typing. Sentinel errors plus Is methods
// let callers classify with errors.Is without depending on concrete types.
package adapter
