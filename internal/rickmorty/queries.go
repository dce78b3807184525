package rickmorty

import "github.com/pders01/rmql/internal/graphql"

var (
	getCharacters = graphql.MustDocument(`query GetCharacters($page: Int, $name: String) {
  characters(page: $page, filter: { name: $name }) {
    info { count pages next prev }
    results {
      id name status species type image gender
      origin { name }
      location { name }
      episode { id }
    }
  }
}`)

	searchLocations = graphql.MustDocument(`query SearchLocations($page: Int, $name: String) {
  locations(page: $page, filter: { name: $name }) {
    info { count pages next prev }
    results {
      id name type dimension
      residents { id }
    }
  }
}`)
)

type pageInfo struct {
	Count *int `json:"count"`
	Pages *int `json:"pages"`
	Next  *int `json:"next"`
	Prev  *int `json:"prev"`
}

type named struct {
	Name *string `json:"name"`
}

type idOnly struct {
	ID *string `json:"id"`
}

type characterResult struct {
	ID       *string   `json:"id"`
	Name     *string   `json:"name"`
	Status   *string   `json:"status"`
	Species  *string   `json:"species"`
	Type     *string   `json:"type"`
	Image    *string   `json:"image"`
	Gender   *string   `json:"gender"`
	Origin   *named    `json:"origin"`
	Location *named    `json:"location"`
	Episode  []*idOnly `json:"episode"`
}

type charactersData struct {
	Characters *struct {
		Info    *pageInfo          `json:"info"`
		Results []*characterResult `json:"results"`
	} `json:"characters"`
}

type locationResult struct {
	ID        *string   `json:"id"`
	Name      *string   `json:"name"`
	Type      *string   `json:"type"`
	Dimension *string   `json:"dimension"`
	Residents []*idOnly `json:"residents"`
}

type locationsData struct {
	Locations *struct {
		Info    *pageInfo         `json:"info"`
		Results []*locationResult `json:"results"`
	} `json:"locations"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func num(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func (r *characterResult) model() Character {
	c := Character{
		ID:       str(r.ID),
		Name:     str(r.Name),
		Status:   str(r.Status),
		Species:  str(r.Species),
		Type:     str(r.Type),
		Image:    str(r.Image),
		Gender:   str(r.Gender),
		Episodes: len(r.Episode),
	}
	if r.Origin != nil {
		c.Origin = str(r.Origin.Name)
	}
	if r.Location != nil {
		c.Location = str(r.Location.Name)
	}
	return c
}

func (r *locationResult) model() Location {
	return Location{
		ID:        str(r.ID),
		Name:      str(r.Name),
		Type:      str(r.Type),
		Dimension: str(r.Dimension),
		Residents: len(r.Residents),
	}
}
