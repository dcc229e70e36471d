// Package framework contains the test engine: the registry of declared tests, the
// attribute filter, the concurrent scheduler, and the reporting protocol.
//
// The general model is:
//
// 1. Tests are declared during startup, either as Facts (one invocation) or as Theories
// (one invocation per element produced by a data provider). Each runnable invocation is
// described by a TestDetails value carrying a process-unique ID and its attributes.
//
// 2. A host selects tests with a Query: a set of suites, inclusive attributes that are
// combined with OR, and exclusive attributes of which any single match excludes a test.
//
// 3. The Scheduler starts each selected test on its own goroutine in random order, with
// at most a fixed number running at once. Failures and panics are caught per test and
// turned into Reporter calls; they never affect other tests.
//
// 4. A Module is the boundary a host uses to enumerate and run the tests of one compiled
// test package. Test packages make themselves available with RegisterModule.
package framework
