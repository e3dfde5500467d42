package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"learner": {
		"test:view",
		"attempt:create",
		"attempt:save",
		"attempt:submit",
		"attempt:view-own",
	},
	"editor": {
		"test:view",
		"test:publish",
		"test:validate",
		"item:manage",
		"stimulus:manage",
		"asset:upload",
		"attempt:view-all",
	},
	"admin": {
		"*", // everything
	},
}
