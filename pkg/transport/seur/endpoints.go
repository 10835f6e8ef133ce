package seur

// Endpoints are the SEUR web services a platform talks to.
type Endpoints struct {
	Public     string // cities and postal codes catalogue
	Print      string // label printing
	Details    string // package detail listing
	Expedition string // expedition queries
	Pickup     string // pickup creation
}

// SEUR service WSDLs. Only the pickup service has a separate pre-production host.
const (
	PublicEndpoint     = "https://ws.seur.com/WSEcatalogoPublicos/servlet/XFireServlet/WSServiciosWebPublicos?wsdl"
	PrintEndpoint      = "http://cit.seur.com/CIT-war/services/ImprimirECBWebService?wsdl"
	DetailsEndpoint    = "http://cit.seur.com/CIT-war/services/DetalleBultoPDFWebService?wsdl"
	ExpeditionEndpoint = "https://ws.seur.com/webseur/services/WSConsultaExpediciones?wsdl"
	PickupEndpoint     = "https://ws.seur.com/webseur/services/WSCrearRecogida?wsdl"
	PickupTestEndpoint = "https://wspre.seur.com/webseur/services/WSCrearRecogida?wsdl"
)

// ResolveEndpoints returns the service endpoints for the real or test environment.
func ResolveEndpoints(real bool) Endpoints {
	eps := Endpoints{
		Public:     PublicEndpoint,
		Print:      PrintEndpoint,
		Details:    DetailsEndpoint,
		Expedition: ExpeditionEndpoint,
		Pickup:     PickupTestEndpoint,
	}
	if real {
		eps.Pickup = PickupEndpoint
	}
	return eps
}
