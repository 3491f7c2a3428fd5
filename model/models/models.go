// Package models - Eingebauter Modell-Katalog
//
// Der Import dieses Pakets registriert alle eingebauten Modelle.
package models

import (
	_ "github.com/sasview/sasmodels/model/models/broadpeak"
	_ "github.com/sasview/sasmodels/model/models/cylinder"
	_ "github.com/sasview/sasmodels/model/models/lamellar"
	_ "github.com/sasview/sasmodels/model/models/sphere"
	_ "github.com/sasview/sasmodels/model/models/triaxialellipsoid"
)
