// Package sutest runs a host application in-process for a test and lets the
// test rewire it first.
//
// A [SUT] collects changes until it is built: host settings and configuration
// sources, then changes to the service registrations, then fixtures that run
// against the built services. Building happens once, on the first call that
// needs a running host:
//
//	s := sutest.New(t, &sampleapp.Startup{})
//	sutest.ReplaceServiceInstance[sampleapp.Clock](s, fixedClock)
//	s.UseStagingEnvironment()
//	require.NoError(t, s.AllowAuthentication("", alice))
//
//	client, err := s.CreateDefaultClient()
//	require.NoError(t, err)
//	resp, err := client.Get("/items")
//
// Configuration methods panic once the host is built, and the methods that
// inspect the built services panic before that. The host is stopped when the
// test ends.
package sutest
