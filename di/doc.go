// Package di implements the dependency-injection container used by host
// applications.
//
// Registrations are collected in a [Collection], which stays mutable until
// [Collection.Build] freezes it into a [Provider]:
//
//	c := di.NewCollection()
//	di.AddSingleton[Clock](c, NewSystemClock)
//	di.AddScoped[*ItemStore](c, NewItemStore)
//	p := c.Build()
//	defer p.Close()
//
//	scope := p.CreateScope()
//	defer scope.Close()
//	store, err := di.Resolve[*ItemStore](scope)
//
// Constructors are plain functions whose parameters are resolved by type. A
// parameter of type [Resolver] receives the scope the service is constructed in.
//
// # Options
//
// [Options] builds typed configuration values. Defaults come from `default`
// struct tags, configurers run in registration order and validators, such as
// the tag based [StructValidator], run last.
package di
