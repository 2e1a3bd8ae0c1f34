package config

var current Configer = NewDotenvConfig("")

// SetConfig installs c as the process wide config returned by GetConfig.
func SetConfig(c Configer) {
	current = c
}

func GetConfig() Configer {
	return current
}
