// Package permkit provides a tenant-scoped authorization and delegation engine.
//
// PermKit decides, for a user acting inside an organization (a "tenant"),
// whether a fine-grained permission is currently held and whether the user may
// delegate that permission to others. Permission state is keyed on a
// membership: the association of one user with one tenant, carrying a coarse
// role. The tenant owner implicitly holds every permission; everyone else is
// resolved from assigned bundles and per-member overrides.
//
// # Core Concepts
//
// Permission key: a stable dot-separated identifier for one capability,
// formatted as "module.resource.action" (e.g. "finance.invoice.create").
// The universe of valid keys lives in the definition registry.
//
// Bundle: a named, tenant-scoped, reusable set of permission keys. A
// membership may hold any number of bundles; its base permission set is the
// union of their keys.
//
// Override: a per-membership exception that force-adds or force-removes a
// single key regardless of bundle membership. Overrides always win over
// bundles.
//
// Delegation scope: an owner-granted allowance permitting one specific
// non-owner membership to further delegate one specific permission key.
//
// # Resolution
//
// The effective permission set for a membership is computed as:
//
//	owner           -> every key in the definition registry
//	everyone else   -> union of assigned bundle keys,
//	                   then overrides applied (grant adds, revoke removes)
//
// CanDelegate for a non-owner requires all of: the key is in the effective
// set, the member holds permkit.PermissionDelegate, the key's definition is
// delegatable, and an explicit delegation scope exists.
//
// # Basic Usage
//
//	// 1. Open the database and build the registry
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	registry := permkit.NewRegistry(permkit.DatabaseLoader(db))
//
//	// 2. Create the service with a membership directory
//	service := permkit.NewService(registry, db, directory)
//
//	// 3. Run migrations and seed the permission catalog
//	db.Migrate(ctx, service.Migrations())
//	permkit.SeedDefinitions(ctx, db, permkit.DefaultDefinitions())
//
//	// 4. Manage bundles and overrides
//	bundle, _ := service.CreateBundle(ctx, tenantID, "vet-basic", "basic vet access",
//	    []string{"vet.treatment.read", "vet.treatment.create"})
//	service.AssignBundle(ctx, membershipID, bundle.ID)
//	service.SetOverride(ctx, membershipID, "finance.invoice.create", true)
//
//	// 5. Check permissions
//	if service.HasPermission(ctx, membershipID, "vet.treatment.create") {
//	    // allowed
//	}
//	if service.CanDelegate(ctx, membershipID, "finance.invoice.create") {
//	    // may grant it to others
//	}
//
// # Middleware Usage
//
//	mw := permkit.NewMiddleware(service)
//
//	router.Handle("/invoices",
//	    mw.RequirePermission("finance.invoice.create")(createInvoiceHandler))
//
// # Audit Log
//
// Every override grant/revoke and delegation-scope change appends an
// immutable audit entry (actor, target membership, key, action, timestamp).
// Audit writes are best-effort: a failed audit insert is logged but never
// rolls back the permission change that triggered it.
package permkit
