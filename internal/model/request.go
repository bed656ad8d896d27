package model

// ConnectRequest carries the connection form. It binds from query
// parameters on GET and from a JSON body on POST.
type ConnectRequest struct {
	URI        string `json:"uri" form:"uri"` // full connection string, wins over the fields below
	Host       string `json:"host" form:"host"`
	Port       string `json:"port" form:"port"`
	Username   string `json:"username" form:"username"`
	Password   string `json:"password" form:"password"`
	AuthSource string `json:"auth_source" form:"auth_source"`
	DBName     string `json:"db_name" form:"db_name"`
}

type ExperimentsResponse struct {
	Database    string   `json:"database"`
	Experiments []string `json:"experiments"`
	Status      string   `json:"status"`
}
