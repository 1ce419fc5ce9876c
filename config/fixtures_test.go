package config

type fixture struct {
	Text   string
	Raw    string
	Config *Config
}

var fixtures = []*fixture{
	{Raw: "", Text: "", Config: New()},
	{Raw: ";Comments only", Text: "", Config: New()},
	{Raw: "#Comments only", Text: "", Config: New()},
	{
		Raw:    "[core]\nrepositoryformatversion=0",
		Text:   "[core]\n\trepositoryformatversion = 0\n",
		Config: New().AddOption("core", "", "repositoryformatversion", "0"),
	},
	{
		Raw:    ";Comment\n[core]\n;Comment\nrepositoryformatversion = 0\n",
		Text:   "[core]\n\trepositoryformatversion = 0\n",
		Config: New().AddOption("core", "", "repositoryformatversion", "0"),
	},
	{
		Raw: "[section]\n",
		Text: `[section]
	option1 = "has # hash"
	option2 = "has \" quote"
	option3 = "has \\ backslash"
	option4 = "  has leading spaces"
	option5 = "has trailing spaces  "
	option6 = has no special characters
`,
		Config: New().
			AddOption("section", "", "option1", `has # hash`).
			AddOption("section", "", "option2", `has " quote`).
			AddOption("section", "", "option3", `has \ backslash`).
			AddOption("section", "", "option4", `  has leading spaces`).
			AddOption("section", "", "option5", `has trailing spaces  `).
			AddOption("section", "", "option6", `has no special characters`),
	},
	{
		Raw: `
			[sect1]
			opt1 = value1
			[sect1 "subsect1"]
			opt2 = value2
		`,
		Text: "[sect1]\n\topt1 = value1\n[sect1 \"subsect1\"]\n\topt2 = value2\n",
		Config: New().
			AddOption("sect1", "", "opt1", "value1").
			AddOption("sect1", "subsect1", "opt2", "value2"),
	},
	{
		Raw: `
			[sect1]
			opt1 = value1
			opt1 = value2
			`,
		Text: "[sect1]\n\topt1 = value1\n\topt1 = value2\n",
		Config: New().
			AddOption("sect1", "", "opt1", "value1").
			AddOption("sect1", "", "opt1", "value2"),
	},
}
