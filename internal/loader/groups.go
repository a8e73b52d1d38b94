package loader

// DefaultGroups is the standard startup plan. Foundation modules carry
// the shared configuration and helpers everything else builds on, so
// they are all critical. Interface modules only affect presentation and
// may fail without blocking startup.
func DefaultGroups() []Group {
	return []Group{
		{
			Name: "foundation",
			Modules: []ModuleSpec{
				{Name: "config", Critical: true},
				{Name: "utils", Critical: true},
			},
		},
		{
			Name: "content",
			Modules: []ModuleSpec{
				{Name: "plugins", Critical: true},
				{Name: "themes", Critical: true},
				{Name: "store", Critical: false},
			},
		},
		{
			Name: "interface",
			Modules: []ModuleSpec{
				{Name: "menu", Critical: false},
				{Name: "editor", Critical: false},
				{Name: "notifications", Critical: false},
			},
		},
	}
}

// ExpectedMembers lists the namespace members the default modules are
// expected to register. Used after a load cycle to flag modules that
// ran but never registered themselves.
func ExpectedMembers() []string {
	return []string{"config", "utils", "plugins", "themes"}
}
