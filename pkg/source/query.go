package source

// ProjectsQuery is the shape every pipeline input is fetched with.
const ProjectsQuery = `query projectsQuery {
  projects {
    id
    name
    program
    expireDate
    tasks {
      roleID
      role
      hoursScoped
    }
    hours {
      roleID
      role
      hoursLogged
    }
  }
}`
