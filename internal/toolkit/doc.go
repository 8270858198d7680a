// Package toolkit wraps the Cognite Toolkit CLI (`cdf`) for the dry run.
//
// All toolkit operations are performed by executing the cdf binary rather
// than reimplementing any of its behavior, so the dry run builds and
// validates a module exactly the way a developer's terminal would.
//
// The package also reads the environment section of the toolkit's
// config.<env>.yaml, which is used only for diagnostics.
package toolkit
