// Package coordinator drives one step function over every retained
// configuration of a matrix.
//
// A Coordinator owns the only cross-step state: the previously dispatched
// configuration and the aggregate failure flag. Steps see both the current
// and the previous configuration through StepContext and use that to decide
// whether incremental on-disk state (a build directory, say) has to be
// discarded; the coordinator never makes that decision itself.
//
// Steps run strictly one after another, exactly once per configuration, in
// generation order. A false result is recorded and the run continues. A
// non-nil error from a step is fatal: it means the run cannot produce
// meaningful results at all (for example a broken fixture library), so the
// coordinator stops and returns what it has.
//
// When the last configuration is done the complete ordered Results are
// forwarded to every registered Reporter.
package coordinator
