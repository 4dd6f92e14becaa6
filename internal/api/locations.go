package api

import "context"

// State, District and PincodeInfo form the location cascade used during
// college and user registration.
type State struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type District struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	StateID string `json:"stateId"`
}

type PincodeInfo struct {
	Pincode  string `json:"pincode"`
	District string `json:"district"`
	StateID  string `json:"stateId"`
}

func (c *Client) ListStates(ctx context.Context) ([]State, error) {
	var resp struct {
		Data []State `json:"data"`
	}
	if err := c.Get(ctx, "/locations/states", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) ListDistricts(ctx context.Context, stateID string) ([]District, error) {
	var resp struct {
		Data []District `json:"data"`
	}
	if err := c.Get(ctx, "/locations/districts", Params{"state_id": stateID}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) LookupPincode(ctx context.Context, pincode string) (*PincodeInfo, error) {
	var info PincodeInfo
	if err := c.Get(ctx, "/locations/pincodes/"+pincode, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
