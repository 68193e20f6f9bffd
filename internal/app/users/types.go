package users

type CreateUserInput struct {
	Name      string
	Email     string
	Password  string
	Signature string
}
