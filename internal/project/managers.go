package project

import (
	_ "github.com/modprep/modprep/internal/pkgmanager/npm"
	_ "github.com/modprep/modprep/internal/pkgmanager/yarn"
)
