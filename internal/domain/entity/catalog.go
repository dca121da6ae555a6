package entity

// Modelos de lectura del catálogo. Los gestiona otro módulo; aquí solo se consultan.

// Label sello discográfico.
type Label struct {
	ID   string
	Name string
}

// Release lanzamiento de un sello.
type Release struct {
	ID      string
	LabelID string
	Name    string
}

// Distributor distribuidor (o canal propio) de un sello.
type Distributor struct {
	ID          string
	LabelID     string
	Name        string
	ChannelType string
}
